package model

import "time"

// RunStatus represents the outcome of a catalog run.
type RunStatus string

const (
	RunStatusComplete RunStatus = "complete"
	RunStatusEmpty    RunStatus = "empty"
)

// Snapshot is the persisted-table equivalent of one run's outputs.
type Snapshot struct {
	RunID     string        `json:"run_id"`
	Source    string        `json:"source"`
	Status    RunStatus     `json:"status"`
	Products  []Product     `json:"products"`
	Ranking   []RankedEntry `json:"ranking"`
	CreatedAt time.Time     `json:"created_at"`
}
