package negotiation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haggle-core-poc/server/internal/negotiation/model"
)

func intp(v int) *int { return &v }

func TestEnvironmentTrackerClampsDials(t *testing.T) {
	st := &memStore{}
	tr := NewEnvironmentTracker(st)

	env := tr.Apply(context.Background(), model.EnvUpdateMessage{
		NoiseLevel:         intp(15),
		CrowdDensity:       intp(-3),
		LightingLevel:      intp(7),
		VisualDistractions: intp(10),
	})

	assert.Equal(t, 10, env.NoiseLevel)
	assert.Equal(t, 0, env.CrowdDensity)
	assert.Equal(t, 7, env.LightingLevel)
	assert.Equal(t, 10, env.VisualDistractions)
	assert.Equal(t, 0, env.TimePressure)
}

func TestEnvironmentTrackerPartialUpdate(t *testing.T) {
	tr := NewEnvironmentTracker(&memStore{})
	ctx := context.Background()

	tr.Apply(ctx, model.EnvUpdateMessage{NoiseLevel: intp(4), LightingLevel: intp(6)})
	env := tr.Apply(ctx, model.EnvUpdateMessage{CrowdDensity: intp(2)})

	// Absent fields keep their previous values.
	assert.Equal(t, 4, env.NoiseLevel)
	assert.Equal(t, 6, env.LightingLevel)
	assert.Equal(t, 2, env.CrowdDensity)
}

func TestEnvironmentTrackerPersistsSnapshot(t *testing.T) {
	st := &memStore{}
	tr := NewEnvironmentTracker(st)

	tr.Apply(context.Background(), model.EnvUpdateMessage{NoiseLevel: intp(3)})

	require.NotNil(t, st.env)
	assert.Equal(t, 3, st.env.NoiseLevel)
}

func TestEnvironmentTrackerStorageFailureIsSwallowed(t *testing.T) {
	st := &memStore{saveErr: errBoom}
	tr := NewEnvironmentTracker(st)

	env := tr.Apply(context.Background(), model.EnvUpdateMessage{NoiseLevel: intp(9)})

	// The in-memory state still advances when the write fails.
	assert.Equal(t, 9, env.NoiseLevel)
}

func TestEnvironmentTrackerSnapshotIsACopy(t *testing.T) {
	tr := NewEnvironmentTracker(&memStore{})
	tr.Apply(context.Background(), model.EnvUpdateMessage{NoiseLevel: intp(5)})

	snap := tr.Snapshot()
	snap.NoiseLevel = 99

	assert.Equal(t, 5, tr.Snapshot().NoiseLevel)
}
