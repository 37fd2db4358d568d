package model

// ================ Config ================
type AgentModelConfig struct {
	Model           string  `envconfig:"AGENT_MODEL" default:"gemini-2.5-flash"`
	MaxTokens       int     `envconfig:"AGENT_MAX_TOKENS" default:"4000"`
	Temperature     float32 `envconfig:"AGENT_TEMPERATURE" default:"0.2"`
	MaxToolRounds   int     `envconfig:"AGENT_MAX_TOOL_ROUNDS" default:"3"`
	ToolConcurrency int     `envconfig:"AGENT_TOOL_CONCURRENCY" default:"4"`
}

type RateLimitConfig struct {
	MaxTokens float64 `envconfig:"RATE_LIMIT_MAX_TOKENS" default:"10"`
	Window    string  `envconfig:"RATE_LIMIT_WINDOW" default:"10m"`
}

type CacheConfig struct {
	Capacity int    `envconfig:"CACHE_CAPACITY" default:"100"`
	TTL      string `envconfig:"CACHE_TTL" default:"6h"`
}

type ToolsConfig struct {
	SearchAPIKey  string `envconfig:"SEARCH_API_KEY"`
	SearchBaseURL string `envconfig:"SEARCH_BASE_URL" default:"https://api.search.brave.com/res/v1/web/search"`
	SearchTimeout int    `envconfig:"SEARCH_TIMEOUT" default:"10"`
	FetchTimeout  int    `envconfig:"FETCH_TIMEOUT" default:"15"`
}

type ServerConfig struct {
	Addr            string `envconfig:"SERVER_ADDR" default:":8080"`
	ReadTimeout     int    `envconfig:"SERVER_READ_TIMEOUT" default:"10"`
	WriteTimeout    int    `envconfig:"SERVER_WRITE_TIMEOUT" default:"120"`
	ShutdownTimeout int    `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10"`
}

type TelemetryConfig struct {
	Salt string `envconfig:"TELEMETRY_SALT" default:"deskmate"`
}
