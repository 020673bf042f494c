package model

// ================ Config ================

type ServerConfig struct {
	Addr string `envconfig:"SERVER_ADDR" default:"127.0.0.1:5200"`
}

type StorageConfig struct {
	DataDir string `envconfig:"DATA_DIR" default:"./data"`
}

type SignalConfig struct {
	// Backend selects the coordination channel with the analysis worker:
	// "file" (shared files, the default) or "redis".
	Backend string `envconfig:"SIGNAL_BACKEND" default:"file"`
	Dir     string `envconfig:"SIGNAL_DIR" default:"./data"`
}

type ReplyModelConfig struct {
	Model       string  `envconfig:"REPLY_MODEL" default:"gemini-2.0-flash"`
	MaxTokens   int     `envconfig:"REPLY_MAX_TOKENS" default:"256"`
	Temperature float32 `envconfig:"REPLY_TEMPERATURE" default:"0.7"`
	Timeout     string  `envconfig:"REPLY_TIMEOUT" default:"20s"`
}

type ReplyPromptConfig struct {
	StallName    string `envconfig:"STALL_NAME" default:"night-market stall"`
	FallbackItem string `envconfig:"REPLY_FALLBACK_ITEM" default:"this item"`
	Fallback     string `envconfig:"REPLY_FALLBACK" default:"(Sorry, I could not settle on a price just now. Please try again in a moment.)"`
}
