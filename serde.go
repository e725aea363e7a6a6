package locus

import (
	"fmt"
	"reflect"

	"github.com/MichaelAJay/go-serializer"
	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Serde converts a storable value to and from its stored bytes.
//
// Serialize must not fail for values that satisfy the type's encoding
// contract, so implementations panic instead of returning an error.
// Deserialize reports malformed or mismatched input as an error.
type Serde[T any] interface {
	Serialize(T) []byte
	Deserialize([]byte) (T, error)
}

// JSONSerde returns the default serde. Output is compact JSON with struct
// fields in declaration order and no HTML escaping.
//
// Decoding is strict about shape: null is rejected unless T can encode as
// null, and every struct field that is neither a pointer nor omitempty
// must be present, in nested structs as well.
func JSONSerde[T any]() Serde[T] {
	return &jsonSerde[T]{}
}

type jsonSerde[T any] struct{}

var _ Serde[any] = &jsonSerde[any]{}

func (*jsonSerde[T]) Serialize(o T) []byte {
	res, err := json.MarshalNoEscape(o)
	if err != nil {
		panic(fmt.Sprintf("locus: %T is not JSON encodable: %v", o, err))
	}
	return res
}

func (*jsonSerde[T]) Deserialize(b []byte) (T, error) {
	var res T
	if err := json.Unmarshal(b, &res); err != nil {
		var zero T
		return zero, err
	}
	if err := checkShape(reflect.TypeOf((*T)(nil)).Elem(), b); err != nil {
		var zero T
		return zero, err
	}
	return res, nil
}

// YAMLSerde stores values as YAML documents.
func YAMLSerde[T any]() Serde[T] {
	return &yamlSerde[T]{}
}

type yamlSerde[T any] struct{}

var _ Serde[any] = &yamlSerde[any]{}

func (*yamlSerde[T]) Serialize(o T) []byte {
	res, err := yaml.Marshal(o)
	if err != nil {
		panic(fmt.Sprintf("locus: %T is not YAML encodable: %v", o, err))
	}
	return res
}

func (*yamlSerde[T]) Deserialize(b []byte) (T, error) {
	var res T
	if err := yaml.Unmarshal(b, &res); err != nil {
		var zero T
		return zero, err
	}
	return res, nil
}

// FormatSerde adapts one of the go-serializer formats (JSON, Binary/gob,
// Msgpack) to Serde.
func FormatSerde[T any](format serializer.Format) (Serde[T], error) {
	var s serializer.Serializer
	switch format {
	case serializer.JSON:
		s = serializer.NewJSONSerializer()
	case serializer.Binary:
		s = serializer.NewGobSerializer()
	case serializer.Msgpack:
		s = serializer.NewMsgpackSerializer()
	default:
		return nil, fmt.Errorf("locus: unsupported serializer format: %v", format)
	}
	return &formatSerde[T]{format: format, s: s}, nil
}

type formatSerde[T any] struct {
	format serializer.Format
	s      serializer.Serializer
}

var _ Serde[any] = &formatSerde[any]{}

func (fs *formatSerde[T]) Serialize(o T) []byte {
	res, err := fs.s.Serialize(o)
	if err != nil {
		panic(fmt.Sprintf("locus: %T is not %v encodable: %v", o, fs.format, err))
	}
	return res
}

func (fs *formatSerde[T]) Deserialize(b []byte) (T, error) {
	var res T
	if err := fs.s.Deserialize(b, &res); err != nil {
		var zero T
		return zero, err
	}
	return res, nil
}

// Encode returns the compact JSON text of v. It panics if v cannot be
// encoded.
func Encode[T any](v T) string {
	return string(JSONSerde[T]().Serialize(v))
}

// Decode reads the whole file at path and parses it as JSON into a T.
// Read failures are reported with KindRead and parse failures with
// KindParse.
func Decode[T any](path string) (T, error) {
	return decode(osBackend, JSONSerde[T](), "decode", path)
}
