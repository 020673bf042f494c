// Package negotiation implements the session state and concession/pricing
// core: environmental context, the two concession tracks, price derivation,
// and the durable turn-by-turn record.
package negotiation

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/haggle-core-poc/server/internal/agent"
	"github.com/haggle-core-poc/server/internal/negotiation/model"
	"github.com/haggle-core-poc/server/internal/negotiation/store"
	"github.com/haggle-core-poc/server/internal/signal"
	logx "github.com/haggle-core-poc/server/pkg/logger"
)

// Session is the process-global negotiation state shared by every connected
// client: one item context, one environment, one concession track set, one
// conversation history. A mutex serialises all handlers, giving the same
// single-writer guarantee a single dispatch loop would.
type Session struct {
	mu sync.Mutex

	tracker *EnvironmentTracker
	engine  *ConcessionEngine
	store   store.Store
	channel signal.Channel
	replier agent.ReplyGenerator // nil when reply generation is not configured

	fallbackReply string

	item    *model.ItemContext
	history []string
}

// Options configures optional session collaborators.
type Options struct {
	Replier       agent.ReplyGenerator
	FallbackReply string
}

func NewSession(st store.Store, ch signal.Channel, opts Options) *Session {
	return &Session{
		tracker:       NewEnvironmentTracker(st),
		engine:        NewConcessionEngine(st),
		store:         st,
		channel:       ch,
		replier:       opts.Replier,
		fallbackReply: opts.FallbackReply,
	}
}

// ApplyEnvironment clamps and applies a partial environment update and
// returns the acknowledgement with the full current snapshot.
func (s *Session) ApplyEnvironment(ctx context.Context, u model.EnvUpdateMessage) model.EnvAck {
	s.mu.Lock()
	defer s.mu.Unlock()

	env := s.tracker.Apply(ctx, u)
	return model.EnvAck{Type: model.TypeEnvAck, Status: "ok", Env: env}
}

// SelectItem replaces the item context wholesale, clears the conversation
// history, resets the history concession maximum, and notifies the analysis
// worker so it can reset its time-pressure accounting.
func (s *Session) SelectItem(ctx context.Context, item model.ItemContext) model.ItemAck {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.item = &item
	s.history = nil
	s.engine.Reset(ctx)

	if err := s.channel.PublishItemReset(ctx, item.ItemID); err != nil {
		logx.Error().Err(err).Str("item_id", item.ItemID).Msg("failed to publish item reset signal")
	}

	rec := model.ItemChangeRecord{
		Timestamp:   time.Now(),
		Event:       model.EventItemUpdate,
		ItemInfo:    item,
		Environment: s.tracker.Snapshot(),
	}
	if err := s.store.AppendItemChange(ctx, rec); err != nil {
		logx.Error().Err(err).Msg("failed to append item change record")
	}

	logx.Info().Str("item_id", item.ItemID).Str("item_name", item.ItemName).
		Float64("max_price", item.MaxPrice).Float64("min_price", item.MinPrice).
		Msg("item context replaced")

	return model.ItemAck{Type: model.TypeItemAck, Status: "ok", Item: item}
}

// Utterance processes one buyer utterance end to end. Empty or
// whitespace-only utterances are ignored entirely: no acknowledgement, no
// state change. Every sub-step is fail-open; a storage or collaborator
// failure degrades the turn, never aborts it.
func (s *Session) Utterance(ctx context.Context, utterance string) *model.UtteranceAck {
	text := strings.TrimSpace(utterance)
	if text == "" {
		logx.Debug().Msg("empty utterance ignored")
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dialogue := s.engine.UserTurn()
	rec := s.buildTurn(ctx, text, dialogue)

	// Request a fresh analysis pass for the next turn. Fire-and-forget:
	// the worker may or may not observe this particular trigger.
	if err := s.channel.PublishTrigger(ctx); err != nil {
		logx.Error().Err(err).Msg("failed to publish analysis trigger")
	}

	ack := &model.UtteranceAck{
		Type:               model.TypeUtteranceAck,
		Status:             "ok",
		Echo:               text,
		DialogueConcession: dialogue,
	}

	if s.replier != nil {
		reply, err := s.replier.Reply(ctx, rec)
		if err != nil {
			logx.Error().Err(err).Msg("reply generation failed, using fallback")
			reply = s.fallbackReply
		}
		ack.AgentReply = reply
	}
	return ack
}

// buildTurn assembles and durably appends the record for one accepted
// utterance. Caller holds the session lock.
func (s *Session) buildTurn(ctx context.Context, text string, dialogue float64) *model.TurnRecord {
	s.history = append(s.history, text)

	res, err := s.channel.ReadLatestResult(ctx)
	if err != nil {
		logx.Error().Err(err).Msg("failed to read analysis result, proceeding without signal")
		res = nil
	}
	final := s.engine.Observe(ctx, res)

	historyMax := s.engine.HistoryMax(ctx)
	suggested, amount := DerivePrice(s.item, historyMax)

	rec := &model.TurnRecord{
		Timestamp:            time.Now(),
		Utterance:            text,
		History:              append([]string(nil), s.history...),
		Environment:          s.tracker.Snapshot(),
		ItemInfo:             s.item,
		FaceResult:           res,
		FinalConcession:      final,
		HistoryMaxConcession: historyMax,
		DialogueConcession:   dialogue,
		ConcessionAmount:     amount,
		SuggestedPrice:       suggested,
	}

	if err := s.store.AppendTurn(ctx, rec); err != nil {
		logx.Error().Err(err).Msg("failed to append turn record")
	}
	return rec
}

// Disconnect resets the history concession maximum. The reset is global: it
// fires on every connection close regardless of how many other connections
// remain. Conversation history and the dialogue track survive.
func (s *Session) Disconnect(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.engine.Reset(ctx)
	logx.Info().Msg("client disconnected, history max concession reset")
}

// Item returns the current item context, nil when none was selected.
func (s *Session) Item() *model.ItemContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.item
}

// History returns a copy of the conversation history for the current item.
func (s *Session) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history...)
}
