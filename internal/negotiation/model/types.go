package model

import "time"

// EnvironmentState holds the clamped environmental dials for the current
// session. All dials live in [0,10]. TimePressure is owned by the external
// analysis worker and has no client-facing update path.
type EnvironmentState struct {
	NoiseLevel         int `json:"noise_level"`
	CrowdDensity       int `json:"crowd_density"`
	LightingLevel      int `json:"lighting_level"`
	VisualDistractions int `json:"visual_distractions"`
	TimePressure       int `json:"time_pressure"`
}

// ItemContext describes the item currently being negotiated. MaxPrice is
// expected to be >= MinPrice but this is not enforced; price derivation
// clamps the gap instead.
type ItemContext struct {
	ItemID   string  `json:"item_id"`
	ItemName string  `json:"item_name"`
	MaxPrice float64 `json:"max_price"`
	MinPrice float64 `json:"min_price"`
}

// FaceResult is the latest observation published by the external analysis
// worker. FinalConcession is nil when the worker did not report a numeric
// value. The style tags are passed through to reply generation untouched.
type FaceResult struct {
	Timestamp         string   `json:"timestamp,omitempty"`
	FramesTotal       int      `json:"frames_total,omitempty"`
	PrimaryExpression string   `json:"primary_expression,omitempty"`
	PrimaryPercentage float64  `json:"primary_percentage,omitempty"`
	BaseConcession    float64  `json:"base_concession,omitempty"`
	EnvAvg            float64  `json:"env_avg,omitempty"`
	TimeImpact        float64  `json:"time_impact,omitempty"`
	CombinedEnv       float64  `json:"combined_env,omitempty"`
	FinalConcession   *float64 `json:"final_concession,omitempty"`
	Emotion           string   `json:"cn_emotion,omitempty"`
	Strategy          string   `json:"strategy,omitempty"`
	StrategyDetail    string   `json:"strategy_detail,omitempty"`
	LanguageStyle     string   `json:"language_style,omitempty"`
}

// TurnRecord is the immutable snapshot assembled for one accepted user
// utterance. It is appended to the turn log and handed to reply generation;
// nullable fields stay nil when the corresponding input was unavailable.
type TurnRecord struct {
	Timestamp            time.Time        `json:"timestamp"`
	Utterance            string           `json:"utterance"`
	History              []string         `json:"history"`
	Environment          EnvironmentState `json:"environment"`
	ItemInfo             *ItemContext     `json:"item_info"`
	FaceResult           *FaceResult      `json:"face_result"`
	FinalConcession      *float64         `json:"final_concession"`
	HistoryMaxConcession float64          `json:"history_max_concession"`
	DialogueConcession   float64          `json:"dialogue_concession"`
	ConcessionAmount     *float64         `json:"concession_amount"`
	SuggestedPrice       *float64         `json:"suggested_price"`
}

// ItemChangeRecord marks an item switch in the turn log.
type ItemChangeRecord struct {
	Timestamp   time.Time        `json:"timestamp"`
	Event       string           `json:"event"`
	ItemInfo    ItemContext      `json:"item_info"`
	Environment EnvironmentState `json:"environment"`
}

// EventItemUpdate is the Event value of an ItemChangeRecord.
const EventItemUpdate = "item_update"
