package storage

import (
	"errors"
	"time"
)

var ErrDisabled = errors.New("storage disabled")

// Config configures storage.
//
// Driver values:
//   - "file": dependency-free file backend (jsonl)
//   - "sqlite": SQLite database file (optional build tag)
//
// If Driver is empty or "none", storage is disabled.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}

// CommandEntry records one dispatched command or token refresh.
// Keep it compact and schema-stable.
type CommandEntry struct {
	At       time.Time `json:"at"`
	Op       string    `json:"op"` // connect | disconnect | refresh
	Target   string    `json:"target,omitempty"`
	Command  string    `json:"command,omitempty"` // start | stop
	Snapshot bool      `json:"snapshot,omitempty"`
	OK       bool      `json:"ok"`
	Error    string    `json:"error,omitempty"`
	TookMS   int64     `json:"took_ms"`
}
