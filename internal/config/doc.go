// Package config loads the dashboard server configuration.
//
// Configuration is read from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. A YAML file (config.yaml, configs/config.yaml or GROWTHDASH_CONFIG_FILE)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables use the GROWTHDASH_ prefix followed by the
// section and field name:
//
//	GROWTHDASH_SERVER_PORT=8080
//	GROWTHDASH_SERVER_MAX_UPLOAD_BYTES=33554432
//	GROWTHDASH_CACHE_MAX_ENTRIES=16
//	GROWTHDASH_CACHE_TTL=1h
//	GROWTHDASH_LOGGING_LEVEL=debug
//	GROWTHDASH_TELEMETRY_ENABLE_TRACING=true
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests that need a configuration without touching the environment use
// config.Default().
package config
