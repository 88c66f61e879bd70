// Package serializer provides the codecs used to store wavelet snapshots and to
// export models. All implementations satisfy ISerializer and are stateless, so a
// single instance can be shared between goroutines.
//
// Implementations:
//
//   - json: Human-readable and the default for the data file.
//   - gob: Go's binary format. Smaller snapshots, readable only by Go programs.
//   - yaml: Human-readable, used by the export command.
//
// Usage:
//
//	s, err := serializer.New("json")
//	data, err := s.Serialize(snapshot)
//	var restored substrate.WaveletSnapshot
//	err = s.Deserialize(data, &restored)
package serializer
