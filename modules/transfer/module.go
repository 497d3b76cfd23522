// Package transfer provides a node that uploads to or downloads from a
// (typically pre-signed) object storage URL.
package transfer

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/specialistvlad/portflow/internal/nodeconfig"
	"github.com/specialistvlad/portflow/internal/registry"
	"resty.dev/v3"
)

// Type is the node type handled by this module.
const Type = "transfer"

const (
	ActionUpload   = "upload"
	ActionDownload = "download"
)

// Module implements the registry.Module interface for this package.
type Module struct {
	// Client overrides the shared client, for tests.
	Client *resty.Client

	once sync.Once
}

// Config is the node configuration.
type Config struct {
	Action      string `json:"action"`
	URL         string `json:"url"`
	Path        string `json:"path"`
	ContentType string `json:"content_type"`
}

func (m *Module) client() *resty.Client {
	m.once.Do(func() {
		if m.Client == nil {
			m.Client = resty.New()
		}
	})
	return m.Client
}

// Close releases the shared client.
func (m *Module) Close() error {
	if m.Client == nil {
		return nil
	}
	return m.Client.Close()
}

// Handle runs the configured action. A `url` input overrides the configured
// URL, which lets a previous node hand over a pre-signed link; it may be a
// registry.Secret.
func (m *Module) Handle(ctx context.Context, svc registry.Services, inputs registry.Ports, cfg nodeconfig.Config) (registry.Ports, error) {
	var c Config
	if err := cfg.Decode(&c); err != nil {
		return nil, err
	}
	if u, ok := registry.StringOf(inputs["url"]); ok && u != "" {
		c.URL = u
	}
	if c.URL == "" {
		return nil, fmt.Errorf("transfer: url is required")
	}

	switch strings.ToLower(c.Action) {
	case ActionUpload:
		return m.upload(ctx, svc, inputs, c)
	case ActionDownload:
		return m.download(ctx, svc, c)
	default:
		return nil, fmt.Errorf("unknown transfer action: '%s'", c.Action)
	}
}

func (m *Module) upload(ctx context.Context, svc registry.Services, inputs registry.Ports, c Config) (registry.Ports, error) {
	logger := svc.Logger().With("action", ActionUpload)

	var data []byte
	switch v := inputs["data"].(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case registry.Secret:
		data = []byte(v.Reveal())
	case nil:
		if c.Path == "" {
			return nil, fmt.Errorf("transfer: upload needs a 'data' input or config.path")
		}
		var err error
		data, err = os.ReadFile(c.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read source file '%s': %w", c.Path, err)
		}
	default:
		return nil, fmt.Errorf("transfer: 'data' input must be bytes or a string, got %T", v)
	}

	contentType := c.ContentType
	if contentType == "" && c.Path != "" {
		contentType = mime.TypeByExtension(filepath.Ext(c.Path))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	logger.Info("Uploading object.", "size", len(data), "content_type", contentType)

	resp, err := m.client().R().
		SetContext(ctx).
		SetContentType(contentType).
		SetBody(data).
		Put(c.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to execute upload request: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("upload failed with status: %s", resp.Status())
	}

	logger.Info("Successfully uploaded object.", "status", resp.Status())
	return registry.Ports{
		"status":      resp.Status(),
		"status_code": resp.StatusCode(),
		"bytes":       len(data),
	}, nil
}

func (m *Module) download(ctx context.Context, svc registry.Services, c Config) (registry.Ports, error) {
	logger := svc.Logger().With("action", ActionDownload)
	logger.Info("Downloading object.")

	resp, err := m.client().R().SetContext(ctx).Get(c.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to execute download request: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("download failed with status: %s", resp.Status())
	}
	data := resp.Bytes()

	if c.Path != "" {
		if err := os.MkdirAll(filepath.Dir(c.Path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory for '%s': %w", c.Path, err)
		}
		if err := os.WriteFile(c.Path, data, 0o644); err != nil {
			return nil, fmt.Errorf("failed to write '%s': %w", c.Path, err)
		}
		logger.Debug("Wrote object to disk.", "path", c.Path)
	}

	logger.Info("Successfully downloaded object.", "status", resp.Status(), "size", len(data))
	return registry.Ports{
		"status":      resp.Status(),
		"status_code": resp.StatusCode(),
		"bytes":       len(data),
		"data":        data,
	}, nil
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(Type, m)
}
