package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/teslashibe/go-autoframe/pkg/camera"
)

//go:embed sample_config.toml
var sampleConfig string

// ErrInvalid wraps the problems reported by Validate when Load rejects a file.
var ErrInvalid = errors.New("config: invalid")

// Detector selects the inference models.
type Detector struct {
	YOLOModel  string  `toml:"yolo_model"`
	Confidence float64 `toml:"confidence"`
	NMS        float64 `toml:"nms"`
	InputSize  int     `toml:"input_size"`

	// Poses enables YuNet head/waist keypoints for the framing score
	Poses          bool    `toml:"poses"`
	YuNetModel     string  `toml:"yunet_model"`
	PoseConfidence float64 `toml:"pose_confidence"`
	TorsoRatio     float64 `toml:"torso_ratio"`
}

// Tracker contains identity-matching thresholds.
type Tracker struct {
	MinConfidence  float64 `toml:"min_confidence"`
	MaxSubjects    int     `toml:"max_subjects"`
	MatchIoU       float64 `toml:"match_iou"`
	TrackTimeoutMs int     `toml:"track_timeout_ms"`
	PoseIoU        float64 `toml:"pose_iou"`
}

// Composer contains the framing rules.
type Composer struct {
	AspectRatio      float64 `toml:"aspect_ratio"`
	Deadzone         float64 `toml:"deadzone"`
	MinCropHeight    float64 `toml:"min_crop_height"`
	HeightMultiplier float64 `toml:"height_multiplier"`
	MinSubjectHeight float64 `toml:"min_subject_height"`
	LostTimeoutMs    int     `toml:"lost_timeout_ms"` // Widen to full frame after the subject is gone this long
}

// Interp contains the crop easing parameters.
type Interp struct {
	Smoothing float64 `toml:"smoothing"`
	Epsilon   float64 `toml:"epsilon"`
}

// Render contains the output size and the crop wait bound.
type Render struct {
	Width     int `toml:"width"`
	Height    int `toml:"height"`
	TimeoutMs int `toml:"timeout_ms"` // 0 waits for the crop indefinitely
}

// Bridge contains the settings shared by producer and consumer.
type Bridge struct {
	Service      string `toml:"service"`
	Addr         string `toml:"addr"`
	URL          string `toml:"url"` // Derived from addr and service when empty
	RetryDelayMs int    `toml:"retry_delay_ms"`
	MaxRetries   int    `toml:"max_retries"`
	WarnLimit    int    `toml:"warn_limit"`
	SurfaceDir   string `toml:"surface_dir"`
	Slots        int    `toml:"slots"`
}

// Sink contains the consumer process settings.
type Sink struct {
	Width     int     `toml:"width"`
	Height    int     `toml:"height"`
	FrameRate float64 `toml:"frame_rate"`
	QueueSize int     `toml:"queue_size"`
	Output    string  `toml:"output"` // File or FIFO receiving raw BGRA; "-" is stdout
	LockDir   string  `toml:"lock_dir"`
}

// Web contains the dashboard settings.
type Web struct {
	Enabled         bool    `toml:"enabled"`
	Addr            string  `toml:"addr"`
	StatusFPS       float64 `toml:"status_fps"`
	Preview         bool    `toml:"preview"`
	PreviewQuality  int     `toml:"preview_quality"`
	PreviewMaxWidth int     `toml:"preview_max_width"`
	PreviewFPS      float64 `toml:"preview_fps"`
}

// Logging contains log output settings.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates every setting of both processes.
//
// Sections:
//   - Capture: camera device and requested mode
//   - Detector, Tracker, Composer, Interp: the per-frame decision chain
//   - Render: output size of the virtual camera
//   - Bridge: service name, address, retry policy and shared-memory surfaces
//   - Sink: consumer cadence, queue and output
//   - Web: dashboard and preview
//   - Log: level and format
type Config struct {
	Capture  camera.Config `toml:"capture"`
	Detector Detector      `toml:"detector"`
	Tracker  Tracker       `toml:"tracker"`
	Composer Composer      `toml:"composer"`
	Interp   Interp        `toml:"interp"`
	Render   Render        `toml:"render"`
	Bridge   Bridge        `toml:"bridge"`
	Sink     Sink          `toml:"sink"`
	Web      Web           `toml:"web"`
	Log      Logging       `toml:"log"`
}

// DefaultPath returns the per-user configuration file location.
func DefaultPath() (string, error) {
	return expandPath("~/.config/autoframe/config.toml")
}

// Load builds the configuration from defaults, the file at path and the
// environment, then validates it. With an empty path the per-user file and
// ./autoframe.toml are tried in that order; when neither exists the defaults
// are used and the returned path is empty.
func Load(path string) (*Config, string, error) {
	cfg := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return nil, "", err
	}

	if resolved != "" {
		data, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", fmt.Errorf("read config: %w", err)
		}
		if err := decode(data, &cfg); err != nil {
			return nil, "", fmt.Errorf("parse config %s: %w", resolved, err)
		}
	}

	cfg.applyEnv(os.Getenv)
	if err := cfg.normalize(); err != nil {
		return nil, "", err
	}

	if problems := cfg.Validate(); len(problems) > 0 {
		return nil, "", fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return &cfg, resolved, nil
}

// Parse decodes TOML on top of the defaults without consulting the
// environment. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := decode(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Sample returns a commented configuration file holding the defaults.
func Sample() string {
	return sampleConfig
}

func decode(data []byte, cfg *Config) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

func resolvePath(path string) (string, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", err
		}
		if _, err := os.Stat(expanded); err != nil {
			return "", fmt.Errorf("stat config: %w", err)
		}
		return expanded, nil
	}

	userPath, err := DefaultPath()
	if err != nil {
		return "", err
	}
	for _, candidate := range []string{userPath, "autoframe.toml"} {
		info, err := os.Stat(candidate)
		if err == nil && !info.IsDir() {
			return candidate, nil
		}
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("stat config: %w", err)
		}
	}
	return "", nil
}

func expandPath(path string) (string, error) {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		path = filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return filepath.Clean(path), nil
}
