package config

type Engine struct {
	// Workers defaults to GOMAXPROCS when zero.
	Workers      int  `env:"WORKERS" envDefault:"0"`
	MaxFileSize  Size `env:"MAX_FILE_SIZE" envDefault:"100MB"`
	MaxFiles     int  `env:"MAX_FILES" envDefault:"20"`
	MaxPages     int  `env:"MAX_PAGES" envDefault:"5000"`
	VerifyOutput bool `env:"VERIFY_OUTPUT" envDefault:"false"`
}
