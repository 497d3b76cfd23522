package nodeconfig

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/kaptinlin/jsonrepair"
)

// ErrInvalidConfig is returned when a blob cannot be parsed into an object.
var ErrInvalidConfig = errors.New("invalid node config")

// Config is the parsed form of a node configuration blob. The zero value is
// an empty config.
type Config struct {
	raw    string
	fields map[string]any
}

// Parse parses a strict JSON object blob.
func Parse(raw string) (Config, error) {
	return parse(raw, false)
}

// ParseLenient parses a blob, repairing malformed JSON when strict parsing
// fails.
func ParseLenient(raw string) (Config, error) {
	return parse(raw, true)
}

func parse(raw string, lenient bool) (Config, error) {
	c := Config{raw: raw}
	if strings.TrimSpace(raw) == "" {
		return c, nil
	}

	fields, err := decodeObject(raw)
	if err != nil && lenient {
		repaired, rerr := jsonrepair.JSONRepair(raw)
		if rerr != nil {
			return c, fmt.Errorf("%w: %v (repair failed: %v)", ErrInvalidConfig, err, rerr)
		}
		fields, err = decodeObject(repaired)
	}
	if err != nil {
		return c, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c.fields = fields
	return c, nil
}

func decodeObject(s string) (map[string]any, error) {
	var v any
	if err := sonic.UnmarshalString(s, &v); err != nil {
		return nil, err
	}
	switch obj := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return obj, nil
	default:
		return nil, fmt.Errorf("expected a JSON object, got %T", v)
	}
}

// Raw returns the blob exactly as it appeared in the graph definition.
func (c Config) Raw() string {
	return c.raw
}

// IsEmpty reports whether the config carries no fields.
func (c Config) IsEmpty() bool {
	return len(c.fields) == 0
}

// Fields returns a shallow copy of the top-level fields.
func (c Config) Fields() map[string]any {
	out := make(map[string]any, len(c.fields))
	for k, v := range c.fields {
		out[k] = v
	}
	return out
}

// Keys returns the top-level field names, sorted.
func (c Config) Keys() []string {
	keys := make([]string, 0, len(c.fields))
	for k := range c.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns a top-level field.
func (c Config) Get(key string) (any, bool) {
	v, ok := c.fields[key]
	return v, ok
}

// String returns a top-level string field, or def when the field is missing
// or not a string.
func (c Config) String(key, def string) string {
	if s, ok := c.fields[key].(string); ok {
		return s
	}
	return def
}

// Decode unmarshals the config into target, which must be a pointer. An
// empty config leaves target untouched.
func (c Config) Decode(target any) error {
	if c.IsEmpty() {
		return nil
	}
	b, err := sonic.Marshal(c.fields)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := sonic.Unmarshal(b, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}
