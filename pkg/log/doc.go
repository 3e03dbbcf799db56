/*
Package log provides structured logging for photocore using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging with
component-specific loggers, configurable log levels, and helper functions for
common logging patterns. All logs include timestamps and support filtering by
severity level for production debugging.

# Architecture

photocore's logging system provides structured JSON logging with minimal overhead:

	┌──────────────────── LOGGING SYSTEM ──────────────────────┐
	│                                                            │
	│  ┌────────────────────────────────────────────┐          │
	│  │            Global Logger                    │          │
	│  │  - Zerolog instance                         │          │
	│  │  - Initialized via log.Init()               │          │
	│  │  - Thread-safe for concurrent use           │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │           Configuration                     │          │
	│  │  - Level: debug/info/warn/error             │          │
	│  │  - Format: JSON or console (human)          │          │
	│  │  - Output: stdout, file, or custom writer   │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │         Component Loggers                   │          │
	│  │  - WithComponent("catalog")                 │          │
	│  │  - WithAlbumID("album-abc123")              │          │
	│  │  - WithUserID("user-xyz")                   │          │
	│  │  - WithFileID("file-def456")                │          │
	│  │  - WithCmdID(42)                            │          │
	│  └──────────────────┬─────────────────────────┘          │
	│                     │                                      │
	│  ┌──────────────────▼─────────────────────────┐          │
	│  │            Log Output                       │          │
	│  │                                              │          │
	│  │  JSON Format:                               │          │
	│  │  {                                           │          │
	│  │    "level": "info",                         │          │
	│  │    "component": "catalog",                  │          │
	│  │    "time": "2024-10-13T10:30:00Z",         │          │
	│  │    "message": "album created"               │          │
	│  │  }                                           │          │
	│  │                                              │          │
	│  │  Console Format:                            │          │
	│  │  2024-10-13T10:30:00Z INF album created component=catalog │          │
	│  └────────────────────────────────────────────┘           │
	└────────────────────────────────────────────────────────┘

# Core Components

Global Logger:
  - Package-level zerolog.Logger instance
  - Initialized once via log.Init()
  - Accessible from all photocore packages
  - Thread-safe concurrent writes

Log Levels:
  - Debug: Detailed debugging information
  - Info: General informational messages
  - Warn: Warning messages (potential issues)
  - Error: Error messages (operation failed)
  - Fatal: Critical errors (process exits)

Configuration:
  - Level: Filter messages below threshold
  - JSONOutput: JSON vs human-readable console
  - Output: io.Writer for log destination (stdout, file)

Context Loggers:
  - WithComponent: Add component name to all logs
  - WithAlbumID: Add album_id context
  - WithUserID: Add user_id context
  - WithFileID: Add file_id context
  - WithCmdID: Add cmd_id context (deletion-journal command being run/replayed)

# Log Levels

Debug Level:
  - Purpose: Detailed debugging information
  - Usage: Development and troubleshooting
  - Performance: Verbose, may impact production
  - Example: "Bucketing file into day bucket: ts=1700000000, zone=Asia/Kolkata"

Info Level:
  - Purpose: General informational messages
  - Usage: Default production level
  - Performance: Moderate volume
  - Example: "Album created: album-abc (owner=user-xyz)"

Warn Level:
  - Purpose: Potential issues or unexpected conditions
  - Usage: Situations that may require attention
  - Performance: Low volume
  - Example: "Deletion journal command replayed on restart (cmd_id=42)"

Error Level:
  - Purpose: Operation failures that need investigation
  - Usage: Failed operations, exceptions
  - Performance: Low volume
  - Example: "Failed to sweep orphaned derivative: permission denied"

Fatal Level:
  - Purpose: Critical errors causing process termination
  - Usage: Unrecoverable errors only
  - Behavior: Logs message and exits process (os.Exit(1))
  - Example: "Failed to open catalog store: %v"

# Usage

Initializing the Logger:

	import "github.com/cuemby/photocore/pkg/log"

	// JSON output (production)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

	// Console output (development)
	log.Init(log.Config{
		Level:      log.DebugLevel,
		JSONOutput: false,
		Output:     os.Stdout,
	})

	// Custom output (file)
	file, _ := os.OpenFile("/var/log/photocore.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     file,
	})

Simple Logging:

	log.Info("Catalog store opened")
	log.Debug("Checking album fragment head")
	log.Warn("Journal replay found a stale command")
	log.Error("Failed to connect to catalog store")
	log.Fatal("Cannot start without a data directory") // Exits process

Structured Logging:

	log.Logger.Info().
		Str("album_id", "album-123").
		Int("file_count", 3).
		Msg("Files added to album")

	log.Logger.Error().
		Err(err).
		Str("user_id", "user-abc").
		Msg("Login failed")

Component Loggers:

	// Create component-specific logger
	catalogLog := log.WithComponent("catalog")
	catalogLog.Info().Msg("Starting catalog transaction")
	catalogLog.Debug().Str("album_id", "album-123").Msg("Opening fragment engine")

	// Multiple context fields
	journalLog := log.WithComponent("journal").
		With().Uint64("cmd_id", 42).
		Str("user_id", "user-abc").Logger()
	journalLog.Info().Msg("Running delete command")
	journalLog.Error().Err(err).Msg("Delete command failed")

Context Logger Helpers:

	// Album-specific logs
	albumLog := log.WithAlbumID("album-abc123")
	albumLog.Info().Msg("Album fragments committed")

	// User-specific logs
	userLog := log.WithUserID("user-xyz789")
	userLog.Info().Msg("Password changed, sessions invalidated")

	// Command-specific logs (deletion journal)
	cmdLog := log.WithCmdID(42)
	cmdLog.Info().Msg("Delete command finished")

Complete Example:

	package main

	import (
		"errors"
		"os"
		"github.com/cuemby/photocore/pkg/log"
	)

	func main() {
		// Initialize logger
		log.Init(log.Config{
			Level:      log.InfoLevel,
			JSONOutput: true,
			Output:     os.Stdout,
		})

		log.Info("photocore starting")

		// Component-specific logging
		catalogLog := log.WithComponent("catalog")
		catalogLog.Info().
			Str("album_id", "album-1").
			Int("file_count", 5).
			Msg("Adding files to album")

		// Error logging
		err := errors.New("connection refused")
		log.Logger.Error().
			Err(err).
			Str("component", "kvstore").
			Msg("Failed to open catalog store")

		log.Info("photocore stopped")
	}

# Integration Points

This package integrates with:

  - pkg/journal: Logs deletion-journal run/finish/restore
  - pkg/upload: Logs upload staging, commit, and orphan sweeps
  - cmd/photocore-admin: Logs startup sequencing
  - pkg/catalog and pkg/auth do not log; they return errors to the caller

# Log Output Examples

JSON Format (Production):

	{"level":"info","component":"catalog","time":"2024-10-13T10:30:00Z","message":"Catalog store opened"}
	{"level":"info","component":"journal","cmd_id":42,"time":"2024-10-13T10:30:01Z","message":"Delete command finished"}
	{"level":"error","component":"upload","file_id":"file-abc","error":"permission denied","time":"2024-10-13T10:30:02Z","message":"Failed to sweep derivative"}

Console Format (Development):

	2024-10-13T10:30:00Z INF Catalog store opened component=catalog
	2024-10-13T10:30:01Z INF Delete command finished component=journal cmd_id=42
	2024-10-13T10:30:02Z ERR Failed to sweep derivative component=upload file_id=file-abc error="permission denied"

# Design Patterns

Global Logger Pattern:
  - Single package-level Logger instance
  - Initialized once at application start
  - Accessible from all packages without passing
  - Simplifies logging in deeply nested calls

Context Logger Pattern:
  - Create child loggers with context fields
  - Pass context loggers to functions
  - Automatically includes context in all logs
  - Avoids repetitive field specification

Structured Logging Pattern:
  - Use typed fields (.Str, .Int, .Err)
  - Enables log aggregation and querying
  - Better than string concatenation
  - Parseable by log analysis tools

Error Logging Pattern:
  - Always use .Err(err) for error objects
  - Records the error's message under the "error" field
  - Enables error tracking and alerting
  - Consistent error format across codebase

# Performance Characteristics

Logging Overhead:
  - Disabled level: 0ns (compile-time optimization)
  - JSON encode: ~500ns per log line
  - Console format: ~1µs per log line
  - String field: +50ns per field
  - Int field: +30ns per field

Memory Allocation:
  - Zero allocation for disabled levels
  - ~100 bytes per log line (JSON)
  - ~200 bytes per log line (console)
  - Amortized by buffer pooling

Throughput:
  - JSON: ~2M log lines per second
  - Console: ~1M log lines per second
  - Bottleneck: I/O write speed
  - Async writes recommended for high volume

Log Level Impact:
  - Debug: High volume, use in development only
  - Info: Moderate volume, suitable for production
  - Warn/Error: Low volume, minimal impact
  - Recommendation: Info level in production

# Troubleshooting

Common Issues:

No Log Output:
  - Symptom: No logs appearing
  - Check: log.Init() called before logging
  - Check: Log level set appropriately (Debug < Info < Warn < Error)
  - Solution: Initialize logger in main() before any logging

Excessive Log Volume:
  - Symptom: Disk space fills quickly
  - Cause: Debug level in production
  - Check: Log level configuration
  - Solution: Use Info level in production, rotate logs

Missing Context Fields:
  - Symptom: Logs missing album_id/user_id/file_id fields
  - Cause: Using global Logger instead of context logger
  - Solution: Use WithComponent() or create child loggers

Log Parsing Fails:
  - Symptom: Cannot parse JSON logs
  - Cause: Invalid JSON in message field
  - Check: Embedded quotes or control characters
  - Solution: Use .Str() instead of string interpolation

Performance Degradation:
  - Symptom: Slow application performance
  - Cause: Excessive logging in hot path
  - Check: Log statements in tight loops (e.g. per-section commit)
  - Solution: Reduce log frequency, use sampling

# Log Rotation

File-Based Logging:

photocore doesn't include built-in log rotation. Use external tools:

Logrotate (Linux):
	# /etc/logrotate.d/photocore
	/var/log/photocore/*.log {
	    daily
	    rotate 7
	    compress
	    delaycompress
	    missingok
	    notifempty
	    copytruncate
	}

Systemd Journal:
	# Automatic rotation by systemd
	journalctl -u photocore -f

Docker/Kubernetes:
	# Use container runtime log drivers
	# JSON logs to stdout (already implemented)

# Security

Log Content:
  - Never log secrets or sensitive data
  - Never log password hashes, session keys, or raw passwords
  - Use log scrubbing for compliance (GDPR, PCI)
  - Review logs before sharing externally

Log Access:
  - Restrict log file permissions (0640)
  - Limit log aggregation access (RBAC)
  - Audit log access in production
  - Encrypt logs at rest and in transit

Log Injection:
  - Use structured logging (prevents injection)
  - Never concatenate user input (album names, emails) into log messages
  - Use typed fields (.Str, .Int) for user data
  - Validate/sanitize before logging if necessary

# Best Practices

Do:
  - Use Info level for production
  - Use structured fields for queryable data
  - Create component-specific loggers
  - Log errors with .Err() so the message lands in the "error" field
  - Include context (album ID, user ID, file ID, cmd ID)

Don't:
  - Log sensitive data (session keys, password hashes)
  - Use Debug level in production
  - Log in tight loops (use sampling)
  - Concatenate strings (use .Str, .Int)
  - Block on log writes (use buffered output)

# See Also

  - Zerolog documentation: https://github.com/rs/zerolog
  - Structured logging: https://www.thoughtworks.com/radar/techniques/structured-logging
  - 12-Factor App Logs: https://12factor.net/logs
*/
package log
