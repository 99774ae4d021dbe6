package config

// Config is the daemon/CLI configuration, read once at startup.
type Config struct {
	LogLevel   string `yaml:"log_level"`
	ListenAddr string `yaml:"listen_addr"`

	Answerer   Answerer    `yaml:"answerer"`
	Retry      Retry       `yaml:"retry"`
	RateLimits []RateLimit `yaml:"rate_limits"`

	StopOnFirstException   bool `yaml:"stop_on_first_exception"`
	RaiseOnValidationError bool `yaml:"raise_on_validation_error"`
}

// Answerer configures the answer-generation client.
type Answerer struct {
	Endpoint  string `yaml:"endpoint"`
	Identity  string `yaml:"identity"`
	TimeoutMs int    `yaml:"timeout_ms"`
	// CachePath enables the sqlite response cache when non-empty.
	CachePath string `yaml:"cache_path"`
}

// Retry configures the bounded exponential backoff policy.
type Retry struct {
	StartDelayMs int     `yaml:"start_delay_ms"`
	MaxDelayMs   int     `yaml:"max_delay_ms"`
	Multiplier   float64 `yaml:"multiplier"`
	MaxAttempts  int     `yaml:"max_attempts"`
	// SkipRetry bypasses the retry policy entirely, useful for
	// deterministic testing.
	SkipRetry bool `yaml:"skip_retry"`
}

// Bucket configures one token bucket.
type Bucket struct {
	Capacity     float64 `yaml:"capacity"`
	RefillPerSec float64 `yaml:"refill_per_sec"`
}

// RateLimit configures the dual buckets for one external-service identity.
type RateLimit struct {
	Identity  string `yaml:"identity"`
	Unlimited bool   `yaml:"unlimited"`
	Requests  Bucket `yaml:"requests"`
	Tokens    Bucket `yaml:"tokens"`
}

// Default returns a configuration with conservative defaults applied.
func Default() *Config {
	return &Config{
		LogLevel:   "info",
		ListenAddr: ":8080",
		Answerer: Answerer{
			Identity:  "default",
			TimeoutMs: 30000,
		},
		Retry: Retry{
			StartDelayMs: 250,
			MaxDelayMs:   10000,
			Multiplier:   2.0,
			MaxAttempts:  4,
		},
	}
}
