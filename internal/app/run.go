package app

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/specialistvlad/portflow/internal/ctxlog"
	"github.com/specialistvlad/portflow/internal/engine"
)

// Run executes the main application logic: it serves the HTTP API when an
// address is configured and otherwise runs the graph once and prints the
// end node's outputs as JSON.
func (a *App) Run(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.")

	if a.config.ServeAddr != "" {
		return a.Serve(ctx)
	}

	input, err := readInput(a.config)
	if err != nil {
		return err
	}

	out, err := a.engine.Run(ctx, a.graph, input)
	if err != nil {
		return fmt.Errorf("execution failed: %w", err)
	}

	b, err := sonic.ConfigStd.MarshalIndent(engine.RedactPorts(out, a.config.RedactLimit), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode outputs: %w", err)
	}
	fmt.Fprintln(a.outW, string(b))

	a.logger.Debug("App.Run method finished.")
	return nil
}
