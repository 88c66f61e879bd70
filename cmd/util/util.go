package util

import (
	"errors"
	"fmt"
	"github.com/ValentinKolb/dObj/lib/common"
	"github.com/ValentinKolb/dObj/lib/db"
	"github.com/ValentinKolb/dObj/lib/db/engines/maple"
	"github.com/ValentinKolb/dObj/lib/model"
	"github.com/ValentinKolb/dObj/lib/serializer"
	"github.com/ValentinKolb/dObj/lib/store"
	"github.com/ValentinKolb/dObj/lib/store/lstore"
	"github.com/ValentinKolb/dObj/lib/substrate"
	"github.com/joho/godotenv"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var log = logger.GetLogger("cli")

const (
	// Wrap is the number of characters to Wrap the help text at
	Wrap int = 50
)

// WrapString wraps a string at Wrap characters
func WrapString(text string) string {
	var wrappedLines []string
	var currentLine strings.Builder
	lineWidth := 0

	for _, word := range strings.Fields(text) {
		wordWidth := len(word)

		// Check if we need to wrap
		if lineWidth > 0 && lineWidth+1+wordWidth > Wrap {
			wrappedLines = append(wrappedLines, currentLine.String())
			currentLine.Reset()
			lineWidth = 0
		}

		if lineWidth > 0 {
			currentLine.WriteString(" ")
			lineWidth++
		}

		currentLine.WriteString(word)
		lineWidth += wordWidth
	}

	if currentLine.Len() > 0 {
		wrappedLines = append(wrappedLines, currentLine.String())
	}

	return strings.Join(wrappedLines, "\n")
}

// --------------------------------------------------------------------------
// Configuration
// --------------------------------------------------------------------------

// SetupModelFlags adds the flags needed to open a model to a command
func SetupModelFlags(cmd *cobra.Command) {
	defaults := common.DefaultModelConfig()

	key := "data-file"
	cmd.PersistentFlags().String(key, defaults.DataFile, WrapString("File the database is loaded from and saved to"))

	key = "serializer"
	cmd.PersistentFlags().String(key, defaults.Serializer, WrapString(fmt.Sprintf("Codec of the stored wavelet snapshots (%s)", strings.Join(serializer.Names, ", "))))

	key = "domain"
	cmd.PersistentFlags().String(key, defaults.Domain, WrapString("Domain of the model wavelet"))

	key = "wave"
	cmd.PersistentFlags().String(key, defaults.WaveID, WrapString("ID of the wave holding the model"))

	key = "participant"
	cmd.PersistentFlags().String(key, defaults.Participant, WrapString("Address of the local user (user@domain)"))

	key = "session"
	cmd.PersistentFlags().String(key, defaults.Session, WrapString("Session used for generated document ids. A random session is used if empty"))

	key = "log-level"
	cmd.PersistentFlags().String(key, defaults.LogLevel, WrapString("Log level (debug, info, warn, error)"))
}

// InitConfig initializes configuration from environment variables
func InitConfig() {
	// load env files
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")

	// initialize viper
	viper.SetEnvPrefix("dobj")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // read in environment variables that match
}

// BindCommandFlags binds a command's flags to viper
func BindCommandFlags(cmd *cobra.Command) error {
	return viper.BindPFlags(cmd.Flags())
}

// GetModelConfig reads the model configuration from viper
func GetModelConfig() common.ModelConfig {
	return common.ModelConfig{
		DataFile:    viper.GetString("data-file"),
		Serializer:  viper.GetString("serializer"),
		Domain:      viper.GetString("domain"),
		WaveID:      viper.GetString("wave"),
		Participant: viper.GetString("participant"),
		Session:     viper.GetString("session"),
		LogLevel:    viper.GetString("log-level"),
	}
}

// --------------------------------------------------------------------------
// Workspace
// --------------------------------------------------------------------------

// Workspace is a wave loaded from the data file together with the storage it
// is written back to.
type Workspace struct {
	Config    common.ModelConfig
	DB        db.KVDB
	Store     store.IStore
	Persister *substrate.Persister
	Wave      *substrate.Wave
	// Persisted reports whether the wave was found in the data file.
	Persisted bool
}

// OpenWorkspace validates config, loads the data file (if it exists) and
// restores the configured wave from it.
func OpenWorkspace(config common.ModelConfig) (*Workspace, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if err := common.InitLoggers(config); err != nil {
		return nil, err
	}

	codec, err := serializer.New(config.Serializer)
	if err != nil {
		return nil, err
	}

	database := maple.NewMapleDB(nil)
	if err := loadDataFile(database, config.DataFile); err != nil {
		return nil, err
	}
	s := lstore.NewLocalStore(func() db.KVDB { return database })
	persister := substrate.NewPersister(s, codec)

	wave, persisted, err := persister.LoadWave(config.WaveID)
	if err != nil {
		return nil, err
	}
	log.Debugf("opened wave %s (persisted: %t)", config.WaveID, persisted)

	return &Workspace{
		Config:    config,
		DB:        database,
		Store:     s,
		Persister: persister,
		Wave:      wave,
		Persisted: persisted,
	}, nil
}

// Model opens (or initializes) the model stored in the wave.
func (w *Workspace) Model() (*model.Model, error) {
	return model.Create(w.Wave, model.Options{
		Domain:      w.Config.Domain,
		Participant: w.Config.Participant,
		Session:     w.Config.Session,
	})
}

// Save writes the wave to the store and the store to the data file.
func (w *Workspace) Save() error {
	if err := w.Persister.SaveWave(w.Wave); err != nil {
		return err
	}
	return saveDataFile(w.DB, w.Config.DataFile)
}

// Close releases the database.
func (w *Workspace) Close() error {
	return w.DB.Close()
}

func loadDataFile(database db.KVDB, path string) error {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debugf("data file %s does not exist yet", path)
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	if err := database.Load(f); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// saveDataFile writes to a temporary file first so an interrupted save keeps
// the previous content.
func saveDataFile(database db.KVDB, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := database.Save(tmp); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("saving %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
