package negotiation

import (
	"context"

	"github.com/haggle-core-poc/server/internal/negotiation/model"
	"github.com/haggle-core-poc/server/internal/negotiation/store"
	logx "github.com/haggle-core-poc/server/pkg/logger"
)

const (
	dialogueStep    = 5.0
	dialogueCeiling = 50.0
)

// ConcessionEngine tracks the two concession accounting lines of a session.
//
// dialogueConcession grows by a fixed step per accepted utterance and is
// process-scoped: it survives item changes and disconnects, and resets only
// when the process restarts. It is reported for telemetry and never feeds
// the price formula.
//
// historyMaxConcession is the running maximum of the analysis worker's
// final_concession values. It only moves up between resets, is persisted on
// every change, and is lazily recovered from storage so a restarted process
// picks up where it left off. It alone drives price derivation.
type ConcessionEngine struct {
	store store.Store

	dialogue   float64
	historyMax *float64
	loaded     bool
}

func NewConcessionEngine(st store.Store) *ConcessionEngine {
	return &ConcessionEngine{store: st}
}

func (e *ConcessionEngine) ensureLoaded(ctx context.Context) {
	if e.loaded {
		return
	}
	e.loaded = true

	meta, err := e.store.LoadMeta(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("failed to load concession meta state, starting unset")
		return
	}
	e.historyMax = meta.HistoryMaxConcession
}

// UserTurn advances the dialogue track and returns its new value.
func (e *ConcessionEngine) UserTurn() float64 {
	e.dialogue += dialogueStep
	if e.dialogue > dialogueCeiling {
		e.dialogue = dialogueCeiling
	}
	return e.dialogue
}

// Dialogue reports the dialogue track without advancing it.
func (e *ConcessionEngine) Dialogue() float64 {
	return e.dialogue
}

// Observe consumes the latest external signal. A numeric final_concession
// above the current maximum raises it and persists immediately; anything
// else leaves the state untouched. The extracted value is returned for the
// turn record (nil when the signal carried none).
func (e *ConcessionEngine) Observe(ctx context.Context, res *model.FaceResult) *float64 {
	e.ensureLoaded(ctx)

	if res == nil || res.FinalConcession == nil {
		return nil
	}
	fc := *res.FinalConcession

	if e.historyMax == nil || fc > *e.historyMax {
		v := fc
		e.historyMax = &v
		e.persist(ctx)
	}
	return res.FinalConcession
}

// HistoryMax reports the concession maximum, 0 when never recorded.
func (e *ConcessionEngine) HistoryMax(ctx context.Context) float64 {
	e.ensureLoaded(ctx)
	if e.historyMax == nil {
		return 0
	}
	return *e.historyMax
}

// Reset drops the history maximum to 0.0 and persists. Called on item change
// and on client disconnect; the dialogue track is deliberately untouched.
func (e *ConcessionEngine) Reset(ctx context.Context) {
	e.ensureLoaded(ctx)

	zero := 0.0
	e.historyMax = &zero
	e.persist(ctx)
}

func (e *ConcessionEngine) persist(ctx context.Context) {
	if err := e.store.SaveMeta(ctx, store.Meta{HistoryMaxConcession: e.historyMax}); err != nil {
		logx.Error().Err(err).Msg("failed to persist concession meta state")
	}
}

// DerivePrice computes the price anchor for one turn from the item context
// and the concession maximum. The result is always within
// [min_price, max_price] when the item prices are ordered; a nil item yields
// nil, which callers must keep distinct from a zero price.
func DerivePrice(item *model.ItemContext, historyMax float64) (suggested, amount *float64) {
	if item == nil {
		return nil, nil
	}

	gap := item.MaxPrice - item.MinPrice
	if gap < 0 {
		gap = 0
	}

	a := gap * (historyMax / 100.0)
	p := item.MaxPrice - a
	if p < item.MinPrice {
		p = item.MinPrice
	}
	return &p, &a
}
