package common

import (
	"fmt"
	"strings"
)

// --------------------------------------------------------------------------
// Model configuration struct
// --------------------------------------------------------------------------

// ModelConfig holds everything needed to open a model from the command line.
type ModelConfig struct {
	// DataFile is the file the key value database is saved to and loaded from.
	DataFile string
	// Serializer is the snapshot codec (json or gob).
	Serializer string

	// Domain and WaveID identify the wave holding the model.
	Domain string
	WaveID string

	// Participant is the address of the local user.
	Participant string
	// Session is the id generator session. Empty means a random session is used.
	Session string

	// Logging configuration
	LogLevel string
}

// DefaultModelConfig returns the configuration used when nothing is set.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		DataFile:    "dobj.db",
		Serializer:  "json",
		Domain:      "local.net",
		WaveID:      "w+default",
		Participant: "user@local.net",
		LogLevel:    "warn",
	}
}

// Validate checks that all required fields are set.
func (c *ModelConfig) Validate() error {
	switch {
	case c.Domain == "":
		return fmt.Errorf("domain must not be empty")
	case c.WaveID == "":
		return fmt.Errorf("wave id must not be empty")
	case !strings.Contains(c.Participant, "@"):
		return fmt.Errorf("participant %q is not an address (user@domain)", c.Participant)
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// String returns a formatted string representation of the configuration
func (c *ModelConfig) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Storage")
	addField("Data File", c.DataFile)
	addField("Serializer", c.Serializer)

	addSection("Model")
	addField("Domain", c.Domain)
	addField("Wave", c.WaveID)
	addField("Participant", c.Participant)
	if c.Session == "" {
		addField("Session", "(random)")
	} else {
		addField("Session", c.Session)
	}

	addSection("Logging")
	addField("Log Level", c.LogLevel)

	return sb.String()
}
