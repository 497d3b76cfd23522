package engine

import (
	"encoding/json"
	"fmt"
	"reflect"
	"unicode/utf8"

	"github.com/specialistvlad/portflow/internal/graph"
)

// DefaultRedactLimit is the longest string logged verbatim.
const DefaultRedactLimit = 4096

// Redact replaces binary and oversized payloads with a short placeholder.
//
// Any slice or array of bytes, strings that are not valid UTF-8, and strings
// longer than limit bytes become "binary(<n> bytes)". Secrets become "***".
// Slices, arrays and maps are walked recursively, with map keys rendered as
// text. Every other value is returned unchanged. A limit of zero or less
// disables the length check.
func Redact(v any, limit int) any {
	switch x := v.(type) {
	case nil:
		return nil
	case graph.Secret:
		return x.String()
	case []byte:
		return placeholder(len(x))
	case json.RawMessage:
		return placeholder(len(x))
	case string:
		if !utf8.ValidString(x) || (limit > 0 && len(x) > limit) {
			return placeholder(len(x))
		}
		return x
	case graph.Ports:
		return RedactPorts(x, limit)
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = Redact(val, limit)
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = Redact(val, limit)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = Redact(val, limit)
		}
		return out
	case []string:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = Redact(val, limit)
		}
		return out
	default:
		return redactValue(v, limit)
	}
}

// redactValue handles the types Redact does not name, such as [][]byte,
// map[string][]byte or a named byte slice.
func redactValue(v any, limit int) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			return placeholder(rv.Len())
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Redact(rv.Index(i).Interface(), limit)
		}
		return out
	case reflect.Map:
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[fmt.Sprint(iter.Key().Interface())] = Redact(iter.Value().Interface(), limit)
		}
		return out
	case reflect.String:
		if str := rv.String(); !utf8.ValidString(str) || (limit > 0 && len(str) > limit) {
			return placeholder(len(str))
		}
		return v
	default:
		return v
	}
}

// RedactPorts redacts every value of a port map. A nil map yields an empty one.
func RedactPorts(p graph.Ports, limit int) map[string]any {
	out := make(map[string]any, len(p))
	for k, v := range p {
		out[k] = Redact(v, limit)
	}
	return out
}

func placeholder(n int) string {
	return fmt.Sprintf("binary(%d bytes)", n)
}
