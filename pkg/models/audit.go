package models

import "time"

// AuditEntry records how one section resolved in one generation run.
type AuditEntry struct {
	RunID       string       `json:"run_id"`
	TripID      string       `json:"trip_id,omitempty"`
	Destination string       `json:"destination"`
	Section     Section      `json:"section"`
	Status      ResultStatus `json:"status"`
	ErrorKind   string       `json:"error_kind,omitempty"`
	Reason      string       `json:"reason,omitempty"`
	LatencyMs   int64        `json:"latency_ms"`
	CreatedAt   time.Time    `json:"created_at"`
}

// AuditConfig controls the audit logging subsystem.
type AuditConfig struct {
	Enabled       bool   `yaml:"enabled"`
	DBPath        string `yaml:"db_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// AuditQueryOpts specifies filters for querying audit entries.
type AuditQueryOpts struct {
	RunID   string
	Section Section
	Status  ResultStatus
	Since   time.Time
	Limit   int
}

// AuditStat holds aggregate audit counts for a section/status combination.
type AuditStat struct {
	Section Section
	Status  ResultStatus
	Count   int
}
