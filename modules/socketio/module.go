// Package socketio provides a node that emits a Socket.IO event and waits
// for a reply event.
package socketio

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/bytedance/sonic"
	"github.com/specialistvlad/portflow/internal/engine"
	"github.com/specialistvlad/portflow/internal/nodeconfig"
	"github.com/specialistvlad/portflow/internal/registry"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// Type is the node type handled by this module.
const Type = "socketio"

const defaultTimeout = 15 * time.Second

// Module implements the registry.Module interface for this package.
type Module struct{}

// Config is the node configuration.
type Config struct {
	URL                string `json:"url"`
	Namespace          string `json:"namespace"`
	EmitEvent          string `json:"emit_event"`
	OnEvent            string `json:"on_event"`
	EmitData           any    `json:"emit_data"`
	Timeout            string `json:"timeout"`
	InsecureSkipVerify bool   `json:"insecure_skip_verify"`
}

func (c *Config) validate() (time.Duration, error) {
	if c.URL == "" {
		return 0, fmt.Errorf("socketio: url is required")
	}
	if c.EmitEvent == "" || c.OnEvent == "" {
		return 0, fmt.Errorf("socketio: emit_event and on_event are required")
	}
	if c.Namespace == "" {
		c.Namespace = "/"
	}
	if c.Timeout == "" {
		return defaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("socketio: failed to parse timeout: %w", err)
	}
	return d, nil
}

// Handle connects, emits EmitEvent with the `data` input (or EmitData) and
// returns the first argument of the OnEvent reply as `response`. A
// registry.Secret input is sent unmasked. The whole exchange, connection
// included, is bounded by Timeout.
func (m *Module) Handle(ctx context.Context, svc registry.Services, inputs registry.Ports, cfg nodeconfig.Config) (registry.Ports, error) {
	var c Config
	if err := cfg.Decode(&c); err != nil {
		return nil, err
	}
	timeout, err := c.validate()
	if err != nil {
		return nil, err
	}

	parsedURL, err := url.Parse(c.URL)
	if err != nil {
		return nil, fmt.Errorf("socketio: failed to parse URL: %w", err)
	}

	logger := svc.Logger().With("url", c.URL, "namespace", c.Namespace)

	opts := socket.DefaultOptions()
	if parsedURL.Path != "" && parsedURL.Path != "/" {
		opts.SetPath(parsedURL.Path)
	}
	if c.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification.")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	opCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(c.Namespace, opts)
	defer io.Disconnect()

	connected := make(chan error, 1)
	done := make(chan any, 1)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Connected.", "sid", io.Id())
		select {
		case connected <- nil:
		default:
		}
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err := fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		select {
		case connected <- err:
		default:
		}
	})
	io.Once(types.EventName(c.OnEvent), func(data ...any) {
		var v any
		if len(data) > 0 {
			v = data[0]
		}
		select {
		case done <- v:
		default:
		}
	})

	logger.Debug("Initiating connection.")
	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-opCtx.Done():
		return nil, fmt.Errorf("timed out after %v waiting for socket.io connection", timeout)
	}

	payload := c.EmitData
	if v, ok := inputs["data"]; ok {
		payload = v
	}
	if logger.Enabled(opCtx, slog.LevelDebug) {
		s, _ := sonic.MarshalString(engine.Redact(payload, engine.DefaultRedactLimit))
		logger.Debug("Emitting event.", "event", c.EmitEvent, "data", s)
	}
	if secret, ok := payload.(registry.Secret); ok {
		payload = secret.Reveal()
	}
	io.Emit(c.EmitEvent, payload)

	select {
	case <-opCtx.Done():
		return nil, fmt.Errorf("timed out after %v waiting for event '%s'", timeout, c.OnEvent)
	case v := <-done:
		logger.Info("Received response event.", "event", c.OnEvent)
		return registry.Ports{"response": v}, nil
	}
}

// Register registers the handler with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Register(Type, m)
}
