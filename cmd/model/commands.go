package model

import (
	"fmt"
	"github.com/ValentinKolb/dObj/lib/model"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"os"
)

var (
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Creates the model if the wave has none",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := workspace.Model()
			if err != nil {
				return err
			}
			if _, err := m.Root(); err != nil {
				return err
			}
			if err := workspace.Save(); err != nil {
				return err
			}
			if workspace.Persisted {
				fmt.Printf("opened model (layout %s) in wave %s\n", m.Version(), workspace.Config.WaveID)
			} else {
				fmt.Printf("created model (layout %s) in wave %s\n", m.Version(), workspace.Config.WaveID)
			}
			return nil
		},
	}
	putCmd = &cobra.Command{
		Use:   "put [path] [key] [value]",
		Short: "Puts a value into the map at path",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, _ := cmd.Flags().GetString("type")
			raw := ""
			if len(args) == 3 {
				raw = args[2]
			}

			m, target, err := mapAt(args[0])
			if err != nil {
				return err
			}
			value, err := newValue(m, typ, raw)
			if err != nil {
				return err
			}
			stored, err := target.Put(args[1], value)
			if err != nil {
				return err
			}
			if err := workspace.Save(); err != nil {
				return err
			}
			fmt.Printf("put %s at %s\n", stored.TypeName(), stored.Path())
			return nil
		},
	}
	getCmd = &cobra.Command{
		Use:   "get [path]",
		Short: "Prints the value at path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, value, err := openModel(args[0])
			if err != nil {
				return err
			}
			switch v := value.(type) {
			case *model.StringType:
				fmt.Println(v.Value())
				return nil
			case *model.NumberType:
				fmt.Println(v.Value())
				return nil
			case *model.TextType:
				fmt.Println(v.Text())
				return nil
			}
			out, err := yaml.Marshal(model.Export(value))
			if err != nil {
				return err
			}
			fmt.Print(string(out))
			return nil
		},
	}
	removeCmd = &cobra.Command{
		Use:   "remove [path] [key]",
		Short: "Removes a key from the map at path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, target, err := mapAt(args[0])
			if err != nil {
				return err
			}
			if !target.Has(args[1]) {
				return fmt.Errorf("%s has no key %q", args[0], args[1])
			}
			if err := target.Remove(args[1]); err != nil {
				return err
			}
			if err := workspace.Save(); err != nil {
				return err
			}
			fmt.Println("removed successfully")
			return nil
		},
	}
	listAddCmd = &cobra.Command{
		Use:   "list-add [path] [value]",
		Short: "Adds a value to the list at path",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, _ := cmd.Flags().GetString("type")
			index, _ := cmd.Flags().GetInt("index")
			raw := ""
			if len(args) == 2 {
				raw = args[1]
			}

			m, target, err := listAt(args[0])
			if err != nil {
				return err
			}
			value, err := newValue(m, typ, raw)
			if err != nil {
				return err
			}
			var stored model.Type
			if index < 0 {
				stored, err = target.Add(value)
			} else {
				stored, err = target.AddAt(index, value)
			}
			if err != nil {
				return err
			}
			if err := workspace.Save(); err != nil {
				return err
			}
			fmt.Printf("added %s at %s\n", stored.TypeName(), stored.Path())
			return nil
		},
	}
	listRemoveCmd = &cobra.Command{
		Use:   "list-remove [path] [index]",
		Short: "Removes the value at index from the list at path",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, err := parseInt("index", args[1])
			if err != nil {
				return err
			}
			_, target, err := listAt(args[0])
			if err != nil {
				return err
			}
			removed, err := target.Remove(index)
			if err != nil {
				return err
			}
			if removed == nil {
				return fmt.Errorf("index %d is out of range (size %d)", index, target.Size())
			}
			if err := workspace.Save(); err != nil {
				return err
			}
			fmt.Printf("removed %s\n", removed.TypeName())
			return nil
		},
	}
	textInsertCmd = &cobra.Command{
		Use:   "text-insert [path] [location] [text]",
		Short: "Inserts text into the rich text at path",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			newLine, _ := cmd.Flags().GetBool("line")
			location, err := parseInt("location", args[1])
			if err != nil {
				return err
			}
			text, err := textAt(args[0])
			if err != nil {
				return err
			}
			if newLine {
				if err := text.InsertNewLine(location); err != nil {
					return err
				}
				// a line element occupies two locations
				location += 2
			}
			if err := text.InsertText(location, args[2]); err != nil {
				return err
			}
			if err := workspace.Save(); err != nil {
				return err
			}
			fmt.Println(text.XML())
			return nil
		},
	}
	textDeleteCmd = &cobra.Command{
		Use:   "text-delete [path] [start] [end]",
		Short: "Deletes the locations [start, end) of the rich text at path",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseInt("start", args[1])
			if err != nil {
				return err
			}
			end, err := parseInt("end", args[2])
			if err != nil {
				return err
			}
			text, err := textAt(args[0])
			if err != nil {
				return err
			}
			if err := text.DeleteText(start, end); err != nil {
				return err
			}
			if err := workspace.Save(); err != nil {
				return err
			}
			fmt.Println(text.XML())
			return nil
		},
	}
	participantsCmd = &cobra.Command{
		Use:   "participants [add|remove] [address]",
		Short: "Lists, adds or removes participants of the model",
		Args: func(cmd *cobra.Command, args []string) error {
			switch {
			case len(args) == 0:
				return nil
			case len(args) == 2 && (args[0] == "add" || args[0] == "remove"):
				return nil
			}
			return fmt.Errorf("expected no arguments or add|remove followed by an address")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := workspace.Model()
			if err != nil {
				return err
			}
			if len(args) == 2 {
				if args[0] == "add" {
					m.AddParticipant(args[1])
				} else {
					m.RemoveParticipant(args[1])
				}
				if err := workspace.Save(); err != nil {
					return err
				}
			}
			for _, p := range m.Participants() {
				fmt.Println(p)
			}
			return nil
		},
	}
	exportCmd = &cobra.Command{
		Use:   "export",
		Short: "Exports the model tree as json or yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			m, err := workspace.Model()
			if err != nil {
				return err
			}
			snapshot, err := m.Snapshot()
			if err != nil {
				return err
			}
			return writeExport(os.Stdout, format, snapshot)
		},
	}
)
