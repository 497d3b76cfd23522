// Package transcode provides a node that converts a payload between
// encodings: text, base64, hex, gzip, zstd, and HTML to Markdown.
package transcode

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/specialistvlad/portflow/internal/nodeconfig"
	"github.com/specialistvlad/portflow/internal/registry"
)

// Type is the node type handled by this module.
const Type = "transcode"

// Format names an encoding of the payload.
type Format string

const (
	Raw      Format = "raw"
	Text     Format = "text"
	Base64   Format = "base64"
	Hex      Format = "hex"
	Gzip     Format = "gzip"
	Zstd     Format = "zstd"
	HTML     Format = "html"
	Markdown Format = "markdown"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Config is the node configuration.
type Config struct {
	From Format `json:"from"`
	To   Format `json:"to"`
}

// Handle decodes the `data` input from the source format and encodes it to
// the target format. Binary targets produce []byte, textual targets string.
func (m *Module) Handle(_ context.Context, svc registry.Services, inputs registry.Ports, cfg nodeconfig.Config) (registry.Ports, error) {
	var c Config
	if err := cfg.Decode(&c); err != nil {
		return nil, err
	}
	if c.From == "" {
		c.From = Raw
	}
	if c.To == "" {
		c.To = Raw
	}
	c.From = Format(strings.ToLower(string(c.From)))
	c.To = Format(strings.ToLower(string(c.To)))

	var in []byte
	switch v := inputs["data"].(type) {
	case []byte:
		in = v
	case string:
		in = []byte(v)
	case registry.Secret:
		in = []byte(v.Reveal())
	case nil:
		return nil, fmt.Errorf("transcode: missing 'data' input")
	default:
		return nil, fmt.Errorf("transcode: 'data' input must be bytes or a string, got %T", v)
	}

	raw, err := decode(c.From, in)
	if err != nil {
		return nil, fmt.Errorf("transcode: decoding %s: %w", c.From, err)
	}
	out, err := encode(c.From, c.To, raw)
	if err != nil {
		return nil, fmt.Errorf("transcode: encoding %s: %w", c.To, err)
	}

	size := 0
	switch v := out.(type) {
	case []byte:
		size = len(v)
	case string:
		size = len(v)
	}
	svc.Logger().Debug("Transcoded payload.", "from", c.From, "to", c.To, "in_size", len(in), "out_size", size)

	return registry.Ports{"data": out, "size": size}, nil
}

func decode(from Format, in []byte) ([]byte, error) {
	switch from {
	case Raw, Text, HTML, Markdown:
		return in, nil
	case Base64:
		return base64.StdEncoding.DecodeString(strings.TrimSpace(string(in)))
	case Hex:
		return hex.DecodeString(strings.TrimSpace(string(in)))
	case Gzip:
		r, err := gzip.NewReader(bytes.NewReader(in))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case Zstd:
		d, err := zstd.NewReader(nil)
		if err != nil {
			return nil, err
		}
		defer d.Close()
		return d.DecodeAll(in, nil)
	default:
		return nil, fmt.Errorf("unsupported format %q", from)
	}
}

func encode(from, to Format, raw []byte) (any, error) {
	switch to {
	case Raw:
		return raw, nil
	case Text, HTML:
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("payload is not valid UTF-8")
		}
		return string(raw), nil
	case Markdown:
		if !utf8.Valid(raw) {
			return nil, fmt.Errorf("payload is not valid UTF-8")
		}
		if from != HTML {
			return string(raw), nil
		}
		md, err := htmltomarkdown.ConvertString(string(raw))
		if err != nil {
			return nil, err
		}
		return md, nil
	case Base64:
		return base64.StdEncoding.EncodeToString(raw), nil
	case Hex:
		return hex.EncodeToString(raw), nil
	case Gzip:
		var buf bytes.Buffer
		w := gzip.NewWriter(&buf)
		if _, err := w.Write(raw); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case Zstd:
		e, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		defer e.Close()
		return e.EncodeAll(raw, nil), nil
	default:
		return nil, fmt.Errorf("unsupported format %q", to)
	}
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(Type, m)
}
