// Package config loads typed configuration from environment variables.
//
// It wraps github.com/joho/godotenv for .env files and
// github.com/caarlos0/env/v11 for struct tag parsing. Each configuration type
// is parsed once and cached for the life of the process.
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Tests that change the environment call ResetCache, or LoadEnv with explicit
// files, before loading again.
package config
