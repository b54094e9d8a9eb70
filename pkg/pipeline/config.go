package pipeline

import (
	"log/slog"
	"time"

	"github.com/teslashibe/go-autoframe/pkg/composer"
	"github.com/teslashibe/go-autoframe/pkg/interp"
	"github.com/teslashibe/go-autoframe/pkg/tracking"
)

// Config configures the capture pipeline and the stages it owns
type Config struct {
	Tracking tracking.Config
	Composer composer.Config
	Interp   interp.Config

	// LostTimeout is how long the primary subject may be missing before the
	// shot widens back to the full frame.
	LostTimeout time.Duration

	Logger *slog.Logger
}

// DefaultConfig returns production defaults
func DefaultConfig() Config {
	return Config{
		Tracking:    tracking.DefaultConfig(),
		Composer:    composer.DefaultConfig(),
		Interp:      interp.DefaultConfig(),
		LostTimeout: time.Second,
		Logger:      slog.Default(),
	}
}
