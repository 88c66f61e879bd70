package cmd

import (
	"fmt"
	"github.com/ValentinKolb/dObj/cmd/model"
	"github.com/ValentinKolb/dObj/cmd/perf"
	"github.com/ValentinKolb/dObj/cmd/util"
	"github.com/ValentinKolb/dObj/lib/migrate"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "1.0.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dobj",
		Short: "typed collaborative object model",
		Long: fmt.Sprintf(`dObj (v%s)

A typed object model (maps, lists, strings, numbers, rich text and files)
stored in the documents of a wave, written in Go.`, Version),
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dObj",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dObj v%s (model layout %s)\n", Version, migrate.LastVersion)
		},
	}
)

func init() {
	// Initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(model.ModelCommands)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	util.SetupModelFlags(RootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
