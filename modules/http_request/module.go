// Package http_request provides a node that performs a single HTTP call.
package http_request

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/specialistvlad/portflow/internal/nodeconfig"
	"github.com/specialistvlad/portflow/internal/registry"
	"resty.dev/v3"
)

// Type is the node type handled by this module.
const Type = "http_request"

const defaultTimeout = 30 * time.Second

// Module implements the registry.Module interface for this package. The
// resty client is created on first use and shared by every node of the type.
type Module struct {
	// Client overrides the shared client, for tests.
	Client *resty.Client

	once sync.Once
}

// Config is the node configuration.
type Config struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Timeout string            `json:"timeout"`
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

// Handle performs the request. The optional `url` input overrides the
// configured URL and the optional `body` input is sent as the request body;
// values other than strings and bytes are sent as JSON. A `bearer_token`
// input becomes the Authorization header. Each of these may be a
// registry.Secret.
func (m *Module) Handle(ctx context.Context, svc registry.Services, inputs registry.Ports, cfg nodeconfig.Config) (registry.Ports, error) {
	var c Config
	if err := cfg.Decode(&c); err != nil {
		return nil, err
	}
	var logURL any = c.URL
	if u, ok := registry.StringOf(inputs["url"]); ok && u != "" {
		c.URL = u
		logURL = inputs["url"]
	}
	if c.URL == "" {
		return nil, fmt.Errorf("http_request: url is required")
	}
	if c.Method == "" {
		c.Method = http.MethodGet
	}
	c.Method = strings.ToUpper(c.Method)

	timeout := defaultTimeout
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return nil, fmt.Errorf("http_request: failed to parse timeout: %w", err)
		}
		timeout = d
	}

	req := m.client().R().
		SetContext(ctx).
		SetTimeout(timeout).
		SetHeaders(c.Headers)

	if tok, ok := registry.StringOf(inputs["bearer_token"]); ok && tok != "" {
		req.SetHeaders(map[string]string{"Authorization": "Bearer " + tok})
	}

	if body, ok := inputs["body"]; ok && body != nil {
		switch b := body.(type) {
		case []byte:
			req.SetBody(b)
		case string:
			req.SetBody(b)
		case registry.Secret:
			req.SetBody(b.Reveal())
		default:
			raw, err := sonic.Marshal(b)
			if err != nil {
				return nil, fmt.Errorf("http_request: failed to encode body: %w", err)
			}
			req.SetBody(raw)
			if _, set := c.Headers["Content-Type"]; !set {
				req.SetContentType("application/json")
			}
		}
	}

	logger := svc.Logger()
	logger.Info("Making HTTP request.", "method", c.Method, "url", logURL)

	resp, err := req.Execute(c.Method, c.URL)
	if err != nil {
		return nil, fmt.Errorf("http_request: failed to execute request: %w", err)
	}
	logger.Info("Received HTTP response.", "status", resp.Status(), "size", len(resp.Bytes()))

	headers := make(map[string]string, len(resp.Header()))
	for k := range resp.Header() {
		headers[k] = resp.Header().Get(k)
	}

	out := registry.Ports{
		"status_code": resp.StatusCode(),
		"body":        resp.Bytes(),
		"headers":     headers,
	}
	if isJSON(resp.Header().Get("Content-Type")) && len(resp.Bytes()) > 0 {
		var v any
		if err := sonic.Unmarshal(resp.Bytes(), &v); err != nil {
			logger.Warn("Response claims JSON but does not parse.", "error", err)
		} else {
			out["json"] = v
		}
	}
	return out, nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(Type, m)
}
