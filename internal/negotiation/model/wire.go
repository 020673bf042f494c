package model

import "encoding/json"

// Message types accepted from and sent to clients. The protocol is
// line-delimited JSON objects over a persistent connection, selected by the
// top-level "type" field.
const (
	TypeEnvUpdate     = "env_update"
	TypeUserUtterance = "user_utterance"
	TypeItemSelected  = "item_selected"

	TypeEnvAck       = "env_received"
	TypeUtteranceAck = "utterance_received"
	TypeItemAck      = "item_received"
)

// Envelope carries just enough of an inbound message to route it.
type Envelope struct {
	Type string `json:"type"`
}

// EnvUpdateMessage is a partial environment update. Nil fields were absent
// from the payload and must not be applied. time_pressure is deliberately
// not decodable from this message.
type EnvUpdateMessage struct {
	NoiseLevel         *int `json:"noise_level"`
	CrowdDensity       *int `json:"crowd_density"`
	LightingLevel      *int `json:"lighting_level"`
	VisualDistractions *int `json:"visual_distractions"`
}

// UtteranceMessage carries one buyer utterance.
type UtteranceMessage struct {
	Utterance string `json:"utterance"`
}

// ItemSelectedMessage replaces the current item context. Clients send either
// snake_case or camelCase field names; both spellings are accepted, with the
// camelCase one winning when both are present.
type ItemSelectedMessage struct {
	Item ItemContext
}

func (m *ItemSelectedMessage) UnmarshalJSON(b []byte) error {
	var raw struct {
		ItemID      string   `json:"item_id"`
		ItemIDAlt   string   `json:"itemId"`
		ItemName    string   `json:"item_name"`
		ItemNameAlt string   `json:"itemName"`
		MaxPrice    *float64 `json:"max_price"`
		MaxPriceAlt *float64 `json:"maxPrice"`
		MinPrice    *float64 `json:"min_price"`
		MinPriceAlt *float64 `json:"minPrice"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}

	m.Item = ItemContext{
		ItemID:   coalesce(raw.ItemIDAlt, raw.ItemID),
		ItemName: coalesce(raw.ItemNameAlt, raw.ItemName),
	}
	if raw.MaxPriceAlt != nil {
		m.Item.MaxPrice = *raw.MaxPriceAlt
	} else if raw.MaxPrice != nil {
		m.Item.MaxPrice = *raw.MaxPrice
	}
	if raw.MinPriceAlt != nil {
		m.Item.MinPrice = *raw.MinPriceAlt
	} else if raw.MinPrice != nil {
		m.Item.MinPrice = *raw.MinPrice
	}
	return nil
}

func coalesce(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// EnvAck acknowledges an environment update with the full current snapshot,
// time_pressure included.
type EnvAck struct {
	Type   string           `json:"type"`
	Status string           `json:"status"`
	Env    EnvironmentState `json:"env"`
}

// UtteranceAck acknowledges an accepted utterance. AgentReply is omitted
// when no reply generator is configured.
type UtteranceAck struct {
	Type               string  `json:"type"`
	Status             string  `json:"status"`
	Echo               string  `json:"echo"`
	DialogueConcession float64 `json:"dialogue_concession"`
	AgentReply         string  `json:"agent_reply,omitempty"`
}

// ItemAck acknowledges an item selection with the normalised context.
type ItemAck struct {
	Type   string      `json:"type"`
	Status string      `json:"status"`
	Item   ItemContext `json:"item"`
}
