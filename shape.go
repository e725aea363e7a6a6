package locus

import (
	"bytes"
	"fmt"
	"reflect"
	"strings"

	"github.com/goccy/go-json"
)

var (
	unmarshalerType     = reflect.TypeOf((*interface{ UnmarshalJSON([]byte) error })(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*interface{ UnmarshalText([]byte) error })(nil)).Elem()
	nullLiteral         = []byte("null")
)

// checkShape reports JSON that decodes into t without an error but does not
// hold a complete value: a null where t is never encoded as null, or an
// object missing a field that is neither a pointer nor omitempty.
// Types with their own UnmarshalJSON or UnmarshalText are not inspected.
func checkShape(t reflect.Type, data []byte) error {
	if t == nil || customDecoded(t) {
		return nil
	}
	if bytes.Equal(bytes.TrimSpace(data), nullLiteral) {
		if nullable(t) {
			return nil
		}
		return fmt.Errorf("null is not a valid %s", t)
	}

	switch t.Kind() {
	case reflect.Pointer:
		return checkShape(t.Elem(), data)
	case reflect.Struct:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return fmt.Errorf("expected an object for %s: %w", t, err)
		}
		return checkFields(t, obj)
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return nil
		}
		var elems []json.RawMessage
		if err := json.Unmarshal(data, &elems); err != nil {
			return fmt.Errorf("expected an array for %s: %w", t, err)
		}
		for i, elem := range elems {
			if err := checkShape(t.Elem(), elem); err != nil {
				return fmt.Errorf("[%d]: %w", i, err)
			}
		}
	case reflect.Map:
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(data, &entries); err != nil {
			return fmt.Errorf("expected an object for %s: %w", t, err)
		}
		for key, v := range entries {
			if err := checkShape(t.Elem(), v); err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
		}
	}
	return nil
}

func checkFields(t reflect.Type, obj map[string]json.RawMessage) error {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" && opts == "" {
			continue
		}

		// untagged embedded structs are flattened into the parent object
		if f.Anonymous && name == "" {
			switch {
			case f.Type.Kind() == reflect.Struct:
				if err := checkFields(f.Type, obj); err != nil {
					return err
				}
				continue
			case f.Type.Kind() == reflect.Pointer && f.Type.Elem().Kind() == reflect.Struct:
				continue
			}
		}
		if !f.IsExported() {
			continue
		}
		if name == "" {
			name = f.Name
		}

		raw, ok := lookupField(obj, name)
		if !ok {
			if optional(f.Type, opts) {
				continue
			}
			return fmt.Errorf("missing field %q", name)
		}
		if err := checkShape(f.Type, raw); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

// lookupField matches keys the way decoding does: exact first, then
// case-insensitive.
func lookupField(obj map[string]json.RawMessage, name string) (json.RawMessage, bool) {
	if raw, ok := obj[name]; ok {
		return raw, true
	}
	for key, raw := range obj {
		if strings.EqualFold(key, name) {
			return raw, true
		}
	}
	return nil, false
}

func customDecoded(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return t.Implements(unmarshalerType) || pt.Implements(unmarshalerType) ||
		t.Implements(textUnmarshalerType) || pt.Implements(textUnmarshalerType)
}

// nullable holds for the kinds that encode their zero value as null.
func nullable(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return true
	default:
		return false
	}
}

func optional(t reflect.Type, opts string) bool {
	if t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface {
		return true
	}
	for _, opt := range strings.Split(opts, ",") {
		if opt == "omitempty" || opt == "omitzero" {
			return true
		}
	}
	return false
}
