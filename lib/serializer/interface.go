package serializer

import "fmt"

// ISerializer is the interface for all snapshot serializers
type ISerializer interface {
	// Serialize serializes a value into a byte array
	// It returns the serialized byte array and an error if any
	Serialize(v any) ([]byte, error)
	// Deserialize deserializes a byte array into the value pointed to by v
	// It returns an error if any
	Deserialize(b []byte, v any) error
}

// Names lists the accepted serializer names.
var Names = []string{"json", "gob", "yaml"}

// New returns the serializer with the given name.
func New(name string) (ISerializer, error) {
	switch name {
	case "json":
		return NewJSONSerializer(), nil
	case "gob":
		return NewGOBSerializer(), nil
	case "yaml":
		return NewYAMLSerializer(), nil
	default:
		return nil, fmt.Errorf("unknown serializer %q (must be one of %v)", name, Names)
	}
}
