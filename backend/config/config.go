// Copyright (C) 2025 efchat.net <tj@efchat.net>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.

package config

import (
	"fmt"
	"strings"
	"time"

	env "github.com/Netflix/go-env"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/samber/lo"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	Port              string        `env:"PORT,default=8080" validate:"required,numeric"`
	DatabaseURL       string        `env:"DATABASE_URL" validate:"required_if=StorageDriver postgres"`
	RedisURL          string        `env:"REDIS_URL"`
	StorageDriver     string        `env:"STORAGE_DRIVER,default=postgres" validate:"oneof=postgres memory"`
	JWTSecret         string        `env:"JWT_SECRET,required=true" validate:"min=16"`
	JWTIssuer         string        `env:"JWT_ISSUER,default=efchat"`
	LogLevel          string        `env:"LOG_LEVEL,default=info"`
	LogFormat         string        `env:"LOG_FORMAT,default=json" validate:"oneof=json console"`
	MaxMessageLength  int           `env:"MAX_MESSAGE_LENGTH,default=4000" validate:"min=1"`
	SendRatePerSecond int           `env:"SEND_RATE_PER_SECOND,default=5" validate:"min=1"`
	SendBurst         int           `env:"SEND_BURST,default=10" validate:"min=1"`
	WriteTimeout      time.Duration `env:"WRITE_TIMEOUT,default=10s" validate:"gt=0"`
	PingInterval      time.Duration `env:"PING_INTERVAL,default=30s" validate:"gt=0"`
	AllowedOrigins    string        `env:"ALLOWED_ORIGINS"`
}

// Load reads .env when present, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Origins returns the allowed CORS and WebSocket origins. Empty means any.
func (c *Config) Origins() []string {
	return lo.FilterMap(strings.Split(c.AllowedOrigins, ","), func(o string, _ int) (string, bool) {
		o = strings.TrimSpace(o)
		return o, o != ""
	})
}
