package main

import "time"

type Config struct {
	Host            string        `env:"HOST"`
	Port            int           `env:"PORT,default=3001"`
	DebugPort       int           `env:"DEBUG_PORT,default=3002"`
	LogLevel        string        `env:"LOG_LEVEL,default=INFO"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT,default=5s"`
}
