package prompts

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"

	"github.com/haggle-core-poc/server/internal/negotiation/model"
)

//go:embed template/reply_prompt.txt
var sellerSystemPrompt string

// RenderReplySystem renders the seller system prompt.
func RenderReplySystem(ctx context.Context, config model.ReplyPromptConfig) (string, error) {
	tpl := prompt.FromMessages(
		schema.GoTemplate,
		schema.SystemMessage(sellerSystemPrompt),
	)
	vars := map[string]any{
		"StallName": config.StallName,
	}
	msgs, err := tpl.Format(ctx, vars)
	if err != nil {
		return "", fmt.Errorf("reply prompt render: %w", err)
	}
	if len(msgs) == 0 || msgs[0] == nil {
		return "", fmt.Errorf("reply prompt render: empty result")
	}
	return msgs[0].Content, nil
}

// BuildReplyUser assembles the per-turn user message from one turn record:
// item, price anchor, the worker's emotion/strategy tags, the conversation so
// far, and the buyer's latest line.
func BuildReplyUser(config model.ReplyPromptConfig, rec *model.TurnRecord) string {
	itemName := config.FallbackItem
	if rec.ItemInfo != nil && rec.ItemInfo.ItemName != "" {
		itemName = rec.ItemInfo.ItemName
	}

	anchor := 0.0
	if rec.SuggestedPrice != nil {
		anchor = *rec.SuggestedPrice
	}

	emotion := "neutral"
	strategy := "reason calmly"
	strategyDetail := ""
	languageStyle := ""
	if rec.FaceResult != nil {
		if rec.FaceResult.Emotion != "" {
			emotion = rec.FaceResult.Emotion
		}
		if rec.FaceResult.Strategy != "" {
			strategy = rec.FaceResult.Strategy
		}
		strategyDetail = rec.FaceResult.StrategyDetail
		languageStyle = rec.FaceResult.LanguageStyle
	}

	historyText := "(this is the buyer's first message)"
	if len(rec.History) > 1 {
		historyText = strings.Join(rec.History[:len(rec.History)-1], " / ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Item: %s\n", itemName)
	fmt.Fprintf(&b, "Suggested price P_sys: %.2f\n\n", anchor)
	fmt.Fprintf(&b, "Buyer read:\n- primary emotion: %s\n- strategy: %s\n", emotion, strategy)
	if strategyDetail != "" {
		fmt.Fprintf(&b, "- strategy detail: %s\n", strategyDetail)
	}
	if languageStyle != "" {
		fmt.Fprintf(&b, "- recommended tone: %s\n", languageStyle)
	}
	fmt.Fprintf(&b, "\nConversation so far (buyer's lines, oldest first):\n%s\n\n", historyText)
	fmt.Fprintf(&b, "Buyer's latest line:\n%s\n\n", rec.Utterance)
	fmt.Fprintf(&b, "Reply as the vendor, in natural spoken language. ")
	fmt.Fprintf(&b, "If the buyer named a price at or above %.2f, accept that exact price; ", anchor)
	fmt.Fprintf(&b, "otherwise %.2f is the only number you may quote.", anchor)
	return b.String()
}
