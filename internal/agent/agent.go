// Package agent turns a finished turn record into a natural-language seller
// reply. The session core only depends on the ReplyGenerator contract; the
// Gemini-backed implementation lives alongside it.
package agent

import (
	"context"

	"github.com/haggle-core-poc/server/internal/negotiation/model"
)

// ReplyGenerator produces the seller utterance for one turn. Implementations
// should honour the context deadline; the dispatcher substitutes a fixed
// fallback string on any error.
type ReplyGenerator interface {
	Reply(ctx context.Context, rec *model.TurnRecord) (string, error)
}
