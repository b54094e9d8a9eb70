package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/go-autoframe/internal/config"
	"github.com/teslashibe/go-autoframe/pkg/bridge"
	"github.com/teslashibe/go-autoframe/pkg/surface"
)

func newSinkCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "sink",
		Short: "Receive frames and stream them to the virtual camera",
		Long: "Listens for the capture process on the bridge address and writes a " +
			"fixed-rate raw BGRA stream, substituting black keepalive frames while " +
			"no capture is active. Only one sink per service name may run.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *ctx.config
			if output != "" {
				cfg.Sink.Output = output
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runSink(runCtx, &cfg, cmd.OutOrStdout(), ctx.log())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Frame destination, \"-\" for stdout (overrides sink.output)")
	return cmd
}

func runSink(ctx context.Context, cfg *config.Config, stdout io.Writer, logger *slog.Logger) error {
	lock, err := bridge.AcquireServiceLock(cfg.Sink.LockDir, cfg.Bridge.Service)
	if err != nil {
		return err
	}
	defer lock.Release()

	out, closeOut, err := openOutput(cfg.Sink.Output, stdout)
	if err != nil {
		return err
	}
	defer closeOut()

	consumer := bridge.NewConsumer(
		cfg.ConsumerConfig(logger),
		surface.NewImporter(cfg.SurfaceOptions()),
		bridge.NewWriterSink(out, cfg.Sink.Width, cfg.Sink.Height),
	)
	server := bridge.NewServer(cfg.ServerConfig(logger), consumer)

	go consumer.Run(ctx)

	errCh := make(chan error, 1)
	go func() { errCh <- server.Listen() }()

	logger.Info("sink running",
		"service", cfg.Bridge.Service,
		"output", cfg.Sink.Output,
		"lock", lock.Path())

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("bridge listener: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("bridge shutdown", "error", err)
	}
	st := consumer.Stats()
	logger.Info("sink stopped", "emitted", st.Emitted, "blanks", st.Blanks, "evicted", st.Evicted)
	return nil
}

// openOutput opens the frame destination. Opening a FIFO blocks until the
// device feeder attaches.
func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "-" {
		return stdout, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open sink output: %w", err)
	}
	return f, func() { f.Close() }, nil
}
