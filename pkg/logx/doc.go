// Package logx configures structured logging for jetleaf-scheduling.
//
// It is a small wrapper (logx.Logger) on top of zerolog that keeps:
//   - Console output readable (short timestamp + short caller)
//   - File output JSON-structured
//
// The zero Logger is a safe no-op, so library types can embed one without
// forcing callers to configure logging.
package logx
