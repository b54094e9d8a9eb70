package composer

// Tuning holds the framing parameters adjustable at runtime.
// These can be modified via the dashboard API without restarting.
type Tuning struct {
	Deadzone         float64 `json:"deadzone"`
	AspectRatio      float64 `json:"aspect_ratio"`
	MinCropHeight    float64 `json:"min_crop_height"`
	HeightMultiplier float64 `json:"height_multiplier"`
}

// Tuning returns the current tuning parameters.
func (c *Composer) Tuning() Tuning {
	cfg := c.Config()
	return Tuning{
		Deadzone:         cfg.Deadzone,
		AspectRatio:      cfg.AspectRatio,
		MinCropHeight:    cfg.MinCropHeight,
		HeightMultiplier: cfg.HeightMultiplier,
	}
}

// SetTuning updates tuning parameters at runtime.
// Only non-zero values are applied.
func (c *Composer) SetTuning(t Tuning) Tuning {
	var cfg Config
	for {
		cur := c.config.Load()
		cfg = *cur

		if t.Deadzone > 0 {
			cfg.Deadzone = min(t.Deadzone, 0.5)
		}
		if t.AspectRatio > 0 {
			cfg.AspectRatio = t.AspectRatio
		}
		if t.MinCropHeight > 0 {
			cfg.MinCropHeight = min(t.MinCropHeight, 1)
		}
		if t.HeightMultiplier > 0 {
			cfg.HeightMultiplier = t.HeightMultiplier
		}

		// Retry when another writer replaced the config since Load.
		if c.config.CompareAndSwap(cur, &cfg) {
			break
		}
	}

	c.logger.Info("tuning updated",
		"deadzone", cfg.Deadzone,
		"aspect_ratio", cfg.AspectRatio,
		"min_crop_height", cfg.MinCropHeight,
		"height_multiplier", cfg.HeightMultiplier)
	return Tuning{
		Deadzone:         cfg.Deadzone,
		AspectRatio:      cfg.AspectRatio,
		MinCropHeight:    cfg.MinCropHeight,
		HeightMultiplier: cfg.HeightMultiplier,
	}
}
