package model

import (
	"encoding/json"
	"fmt"
	"github.com/ValentinKolb/dObj/lib/migrate"
	"github.com/ValentinKolb/dObj/lib/model"
	"github.com/ValentinKolb/dObj/lib/substrate"
	gometrics "github.com/rcrowley/go-metrics"
	"github.com/sanity-io/litter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"io"
	"os"
	"time"
)

var (
	dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Prints the documents of the model wavelet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			withMetrics, _ := cmd.Flags().GetBool("metrics")

			wavelet := workspace.Wave.Wavelet(substrate.WaveletID{Domain: workspace.Config.Domain, ID: model.RootWaveletID})
			if wavelet == nil {
				return fmt.Errorf("wave %s has no model wavelet in %s", workspace.Config.WaveID, workspace.Config.Domain)
			}

			if debug {
				litter.Config.HidePrivateFields = false
				litter.Dump(wavelet.Snapshot())
			} else {
				dumpDocuments(os.Stdout, wavelet)
			}

			if withMetrics {
				fmt.Println()
				substrate.WriteMetrics(os.Stdout)
				gometrics.WriteOnce(gometrics.DefaultRegistry, os.Stdout)
			}
			return nil
		},
	}
	migrateCmd = &cobra.Command{
		Use:   "migrate",
		Short: "Migrates the stored model to the current layout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			domain := workspace.Config.Domain
			before, err := migrate.CurrentVersion(workspace.Wave, domain)
			if err != nil {
				return err
			}
			if before == migrate.LastVersion {
				fmt.Printf("model is up to date (layout %s)\n", before)
				return nil
			}
			if !migrate.MigrateIfNecessary(workspace.Wave, domain) {
				return fmt.Errorf("migrating layout %s failed", before)
			}
			if err := workspace.Save(); err != nil {
				return err
			}
			fmt.Printf("migrated model from layout %s to %s in %s\n", before, migrate.LastVersion, time.Duration(migrate.Timer().Max()))
			return nil
		},
	}
)

func dumpDocuments(w io.Writer, wavelet *substrate.Wavelet) {
	fmt.Fprintf(w, "wavelet %s (creator %s)\n", wavelet.ID(), wavelet.Creator())
	for _, id := range wavelet.DocumentIDs() {
		info, _ := wavelet.Info(id)
		fmt.Fprintf(w, "\n%s (author %s, modified %s)\n", id, info.Author, info.LastModified.Format("2006-01-02 15:04:05"))
		if wavelet.HasBlip(id) {
			blip, err := wavelet.Blip(id)
			if err == nil {
				fmt.Fprintf(w, "  %s\n", blip.Content().XML())
			}
			continue
		}
		doc, err := wavelet.Document(id)
		if err == nil {
			fmt.Fprintf(w, "  %s\n", doc.XML())
		}
	}
}

// writeExport writes snapshot to w in the given format.
func writeExport(w io.Writer, format string, snapshot map[string]any) error {
	switch format {
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(snapshot)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(snapshot); err != nil {
			return err
		}
		return encoder.Close()
	default:
		return fmt.Errorf("invalid format %s (must be json or yaml)", format)
	}
}
