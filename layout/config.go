package layout

import (
	"log/slog"
	"os"
)

// Config tunes the confidence thresholds and caches. Zero value is usable
// after defaults().
type Config struct {
	// Z is the critical value for the confidence interval (1.96 = 95%).
	Z float64

	// HighMaxWidth and HighMinSamples gate the high significance tier:
	// both interval dimensions strictly under the width and at least the
	// sample count. Medium is the same shape with looser bounds.
	HighMaxWidth     float64
	HighMinSamples   int64
	MediumMaxWidth   float64
	MediumMinSamples int64

	// CacheSize bounds the read-through LRU caches in front of the
	// statistics and pattern stores.
	CacheSize int

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Z == 0 {
		c.Z = 1.96
	}
	if c.HighMaxWidth == 0 {
		c.HighMaxWidth = 0.02
	}
	if c.HighMinSamples == 0 {
		c.HighMinSamples = 5
	}
	if c.MediumMaxWidth == 0 {
		c.MediumMaxWidth = 0.05
	}
	if c.MediumMinSamples == 0 {
		c.MediumMinSamples = 3
	}
	if c.CacheSize == 0 {
		c.CacheSize = 512
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	}
}
