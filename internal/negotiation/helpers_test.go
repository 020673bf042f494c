package negotiation

import (
	"context"
	"errors"

	"github.com/haggle-core-poc/server/internal/negotiation/model"
	"github.com/haggle-core-poc/server/internal/negotiation/store"
)

// memStore records every persistence call in memory.
type memStore struct {
	env         *model.EnvironmentState
	meta        *store.Meta
	turns       []*model.TurnRecord
	itemChanges []model.ItemChangeRecord

	saveErr error
	loadErr error
}

func (m *memStore) SaveEnvironment(_ context.Context, env model.EnvironmentState) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.env = &env
	return nil
}

func (m *memStore) SaveMeta(_ context.Context, meta store.Meta) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.meta = &meta
	return nil
}

func (m *memStore) LoadMeta(_ context.Context) (store.Meta, error) {
	if m.loadErr != nil {
		return store.Meta{}, m.loadErr
	}
	if m.meta == nil {
		return store.Meta{}, nil
	}
	return *m.meta, nil
}

func (m *memStore) AppendTurn(_ context.Context, rec *model.TurnRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.turns = append(m.turns, rec)
	return nil
}

func (m *memStore) AppendItemChange(_ context.Context, rec model.ItemChangeRecord) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.itemChanges = append(m.itemChanges, rec)
	return nil
}

var _ store.Store = (*memStore)(nil)

// stubChannel serves a fixed result and counts published signals.
type stubChannel struct {
	result  *model.FaceResult
	readErr error

	triggers   int
	itemResets []string
}

func (c *stubChannel) PublishTrigger(context.Context) error {
	c.triggers++
	return nil
}

func (c *stubChannel) PublishItemReset(_ context.Context, itemID string) error {
	c.itemResets = append(c.itemResets, itemID)
	return nil
}

func (c *stubChannel) ReadLatestResult(context.Context) (*model.FaceResult, error) {
	if c.readErr != nil {
		return nil, c.readErr
	}
	return c.result, nil
}

// stubReplier returns a canned reply or a canned error.
type stubReplier struct {
	reply string
	err   error
	calls int
	last  *model.TurnRecord
}

func (r *stubReplier) Reply(_ context.Context, rec *model.TurnRecord) (string, error) {
	r.calls++
	r.last = rec
	if r.err != nil {
		return "", r.err
	}
	return r.reply, nil
}

var errBoom = errors.New("boom")

func f64(v float64) *float64 { return &v }

func faceResult(final float64) *model.FaceResult {
	return &model.FaceResult{
		PrimaryExpression: "Neutral",
		FinalConcession:   f64(final),
	}
}
