package model

import (
	"fmt"
	"github.com/ValentinKolb/dObj/cmd/util"
	"github.com/ValentinKolb/dObj/lib/model"
	"github.com/spf13/cobra"
	"strconv"
	"strings"
)

var (
	workspace *util.Workspace

	// ModelCommands represents the model command group
	ModelCommands = &cobra.Command{
		Use:                "model",
		Short:              "Read and modify the model stored in the data file",
		PersistentPreRunE:  openWorkspace,
		PersistentPostRunE: closeWorkspace,
	}
)

// valueTypes are the accepted values of the --type flag.
var valueTypes = []string{"string", "number", "map", "list", "text", "file"}

func init() {
	// Add subcommands
	ModelCommands.AddCommand(initCmd)
	ModelCommands.AddCommand(putCmd)
	ModelCommands.AddCommand(getCmd)
	ModelCommands.AddCommand(removeCmd)
	ModelCommands.AddCommand(listAddCmd)
	ModelCommands.AddCommand(listRemoveCmd)
	ModelCommands.AddCommand(textInsertCmd)
	ModelCommands.AddCommand(textDeleteCmd)
	ModelCommands.AddCommand(participantsCmd)
	ModelCommands.AddCommand(dumpCmd)
	ModelCommands.AddCommand(exportCmd)
	ModelCommands.AddCommand(migrateCmd)

	// Add flags
	typeHelp := util.WrapString(fmt.Sprintf("Type of the value (%s). Numbers must parse as float, files are given as domain/id[,content-type]", strings.Join(valueTypes, ", ")))
	putCmd.Flags().String("type", "string", typeHelp)
	listAddCmd.Flags().String("type", "string", typeHelp)
	listAddCmd.Flags().Int("index", -1, util.WrapString("Position to insert the value at. Appends if negative"))
	textInsertCmd.Flags().Bool("line", false, util.WrapString("Start a new line at the location before inserting the text"))
	dumpCmd.Flags().Bool("debug", false, util.WrapString("Dump the wavelet snapshot as Go values instead of the document XML"))
	dumpCmd.Flags().Bool("metrics", false, util.WrapString("Print the document and migration metrics"))
	exportCmd.Flags().String("format", "json", util.WrapString("Output format (json, yaml)"))
}

// openWorkspace loads the wave configured by the flags
func openWorkspace(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	workspace, err = util.OpenWorkspace(util.GetModelConfig())
	return err
}

func closeWorkspace(_ *cobra.Command, _ []string) error {
	if workspace == nil {
		return nil
	}
	return workspace.Close()
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// openModel opens the model and resolves path to a value.
func openModel(path string) (*model.Model, model.Type, error) {
	m, err := workspace.Model()
	if err != nil {
		return nil, nil, err
	}
	value := m.FromPath(path)
	if value == nil {
		return nil, nil, fmt.Errorf("no value at path %q", path)
	}
	return m, value, nil
}

func mapAt(path string) (*model.Model, *model.MapType, error) {
	m, value, err := openModel(path)
	if err != nil {
		return nil, nil, err
	}
	target, ok := value.(*model.MapType)
	if !ok {
		return nil, nil, fmt.Errorf("%s is a %s, not a map", path, value.TypeName())
	}
	return m, target, nil
}

func listAt(path string) (*model.Model, *model.ListType, error) {
	m, value, err := openModel(path)
	if err != nil {
		return nil, nil, err
	}
	target, ok := value.(*model.ListType)
	if !ok {
		return nil, nil, fmt.Errorf("%s is a %s, not a list", path, value.TypeName())
	}
	return m, target, nil
}

func textAt(path string) (*model.TextType, error) {
	_, value, err := openModel(path)
	if err != nil {
		return nil, err
	}
	target, ok := value.(*model.TextType)
	if !ok {
		return nil, fmt.Errorf("%s is a %s, not a text", path, value.TypeName())
	}
	return target, nil
}

// newValue creates a detached value of the given type from its command line form.
func newValue(m *model.Model, typ, value string) (model.Type, error) {
	switch typ {
	case "string":
		return m.CreateString(value), nil
	case "number":
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return nil, fmt.Errorf("%q is not a number: %w", value, err)
		}
		return m.CreateNumber(value), nil
	case "map":
		return m.CreateMap(), nil
	case "list":
		return m.CreateList(), nil
	case "text":
		return m.CreateTextWith(value), nil
	case "file":
		raw, contentType, _ := strings.Cut(value, ",")
		id, err := model.ParseAttachmentID(raw)
		if err != nil {
			return nil, err
		}
		return m.CreateFile(id, contentType), nil
	default:
		return nil, fmt.Errorf("invalid type %s (must be one of %s)", typ, strings.Join(valueTypes, ", "))
	}
}

func parseInt(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", name, err)
	}
	return n, nil
}
