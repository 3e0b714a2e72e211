// Package logger is a small factory over log/slog: pick a format and
// level, get a configured *slog.Logger. Components receive the logger
// by injection and fall back to slog.Default when none is given.
package logger
