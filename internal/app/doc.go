// Package app wires the growth dashboard together and manages its lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration from GROWTHDASH_* environment variables and an optional YAML file
//  2. Initialize the slog logger and OpenTelemetry providers
//  3. Create the dataset cache, wiring evictions into business metrics
//  4. Build the loader, validators, chart renderer and services
//  5. Mount the HTML pages, the JSON API, health checks and /metrics
//  6. Start the HTTP server
//
// # Middleware
//
// Every route except /metrics passes through:
//
//	RequestID → RealIP → OTel → Logger → Recoverer → SecurityHeaders → RateLimit → Timeout
//
// Upload routes additionally cap the request body at server.max_upload_bytes.
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then drains in-flight requests, stops the
// cache sweeper and flushes telemetry. Errors are returned to the caller; the
// package never calls os.Exit.
package app
