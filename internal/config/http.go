package config

import "time"

type HTTP struct {
	BaseURL     string    `env:"BASE_URL,expand" envDefault:"/"`
	Address     string    `env:"ADDRESS,expand" envDefault:":3000"`
	Development bool      `env:"DEVELOPMENT" envDefault:"false"`
	CORS        CORS      `envPrefix:"CORS_"`
	RateLimit   RateLimit `envPrefix:"RATE_LIMIT_"`
}

type CORS struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

type RateLimit struct {
	Enabled      bool          `env:"ENABLED" envDefault:"true"`
	Interval     time.Duration `env:"INTERVAL" envDefault:"30m"`
	Burst        int           `env:"BURST" envDefault:"50"`
	CacheSize    int           `env:"CACHE_SIZE" envDefault:"10000"`
	CacheTTL     time.Duration `env:"CACHE_TTL" envDefault:"24h"`
	TrustHeaders bool          `env:"TRUST_HEADERS" envDefault:"false"`
}
