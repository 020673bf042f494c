package negotiation

import (
	"context"

	"github.com/haggle-core-poc/server/internal/negotiation/model"
	"github.com/haggle-core-poc/server/internal/negotiation/store"
	logx "github.com/haggle-core-poc/server/pkg/logger"
)

// EnvironmentTracker owns the session's environmental dials. Every accepted
// update is clamped to [0,10] and the full snapshot is written to storage
// best-effort. The time_pressure dial belongs to the analysis worker and is
// never touched from here.
type EnvironmentTracker struct {
	state model.EnvironmentState
	store store.Store
}

func NewEnvironmentTracker(st store.Store) *EnvironmentTracker {
	return &EnvironmentTracker{store: st}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Apply merges the present fields of an update into the current state and
// persists the snapshot. Out-of-range values are clamped, never rejected.
func (t *EnvironmentTracker) Apply(ctx context.Context, u model.EnvUpdateMessage) model.EnvironmentState {
	if u.NoiseLevel != nil {
		t.state.NoiseLevel = clamp(*u.NoiseLevel, 0, 10)
	}
	if u.CrowdDensity != nil {
		t.state.CrowdDensity = clamp(*u.CrowdDensity, 0, 10)
	}
	if u.LightingLevel != nil {
		t.state.LightingLevel = clamp(*u.LightingLevel, 0, 10)
	}
	if u.VisualDistractions != nil {
		t.state.VisualDistractions = clamp(*u.VisualDistractions, 0, 10)
	}

	if err := t.store.SaveEnvironment(ctx, t.state); err != nil {
		logx.Error().Err(err).Msg("failed to persist environment snapshot")
	}
	return t.state
}

// Snapshot returns a copy of the current state.
func (t *EnvironmentTracker) Snapshot() model.EnvironmentState {
	return t.state
}
