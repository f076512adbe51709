package layout

import (
	"context"
	"math"
)

// ConfidenceInterval derives the position interval for a field from its
// stored statistics. Returns (nil, nil) when fewer than two observations
// exist: with n < 2 the sample variance is undefined and there is nothing to
// gate a geometric match on.
func (m *Memory) ConfidenceInterval(ctx context.Context, label, field string) (*ConfidenceInterval, error) {
	fs, err := m.fieldStat(ctx, label, field)
	if err != nil {
		return nil, err
	}
	if fs == nil || fs.N < 2 {
		return nil, nil
	}

	n := float64(fs.N)
	seX := math.Sqrt(fs.M2PX / (n - 1) / n)
	seY := math.Sqrt(fs.M2PY / (n - 1) / n)

	ci := &ConfidenceInterval{
		PXLow:  fs.MeanPX - m.cfg.Z*seX,
		PXHigh: fs.MeanPX + m.cfg.Z*seX,
		PYLow:  fs.MeanPY - m.cfg.Z*seY,
		PYHigh: fs.MeanPY + m.cfg.Z*seY,
		N:      fs.N,
		Width:  2 * m.cfg.Z * seX,
		Height: 2 * m.cfg.Z * seY,
	}
	ci.Significance = m.significance(ci)
	return ci, nil
}

// significance rates an interval: tiers are evaluated strictly in order, and
// the width bounds are strict so an interval exactly at a threshold falls to
// the next tier down.
func (m *Memory) significance(ci *ConfidenceInterval) Significance {
	switch {
	case ci.Width < m.cfg.HighMaxWidth && ci.Height < m.cfg.HighMaxWidth && ci.N >= m.cfg.HighMinSamples:
		return SignificanceHigh
	case ci.Width < m.cfg.MediumMaxWidth && ci.Height < m.cfg.MediumMaxWidth && ci.N >= m.cfg.MediumMinSamples:
		return SignificanceMedium
	default:
		return SignificanceLow
	}
}
