package config

import "time"

type Storage struct {
	UploadDir     string        `env:"UPLOAD_DIR,expand" envDefault:"uploads"`
	Retention     time.Duration `env:"RETENTION" envDefault:"1h"`
	SweepInterval time.Duration `env:"SWEEP_INTERVAL" envDefault:"1h"`
}
