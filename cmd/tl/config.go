package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"

	"github.com/daviddao/tickledger/pkg/clock"
)

const (
	defaultDir = ".tickledger"
	defaultDB  = defaultDir + "/tickledger.db"
)

// config is read from the environment once per invocation. DB carries no
// envDefault tag; loadConfig falls back to defaultDB so the path is spelled
// in one place.
type config struct {
	DB        string `env:"TICKLEDGER_DB"`
	LogFormat string `env:"TICKLEDGER_LOG_FORMAT" envDefault:"text"`
	LogLevel  string `env:"TICKLEDGER_LOG_LEVEL"  envDefault:"warn"`
	Clock24h  bool   `env:"TICKLEDGER_24H"`
}

func loadConfig() (config, error) {
	var cfg config
	if err := env.Parse(&cfg); err != nil {
		return config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.DB == "" {
		cfg.DB = defaultDB
	}
	return cfg, nil
}

// formatOptions is the tick display used by every human-readable command.
func (c config) formatOptions() clock.FormatOptions {
	opts := clock.DefaultFormat
	opts.Is24h = c.Clock24h
	return opts
}
