// Package store persists the durable artifacts of a negotiation session:
// the environment snapshot, the concession meta state, and the append-only
// per-turn log. Implementations return explicit errors; callers decide to
// log-and-continue, so a storage failure never terminates a turn.
package store

import (
	"context"

	"github.com/haggle-core-poc/server/internal/negotiation/model"
)

// Meta is the small overwrite-on-change state that must survive a process
// restart. HistoryMaxConcession is nil when never recorded.
type Meta struct {
	HistoryMaxConcession *float64 `json:"history_max_concession"`
}

// Store is the durable storage contract for one negotiation session.
type Store interface {
	// SaveEnvironment overwrites the environment snapshot.
	SaveEnvironment(ctx context.Context, env model.EnvironmentState) error

	// SaveMeta overwrites the meta state.
	SaveMeta(ctx context.Context, meta Meta) error

	// LoadMeta reads the meta state. A missing or corrupt file yields a
	// zero Meta and no error; only I/O failures are reported.
	LoadMeta(ctx context.Context) (Meta, error)

	// AppendTurn appends one turn record to the session log.
	AppendTurn(ctx context.Context, rec *model.TurnRecord) error

	// AppendItemChange appends one item-change event to the session log.
	AppendItemChange(ctx context.Context, rec model.ItemChangeRecord) error
}
