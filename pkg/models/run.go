package models

import "time"

// Run statuses
const (
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// RunSummary is the compact description of a finished run that is
// published as an event and listed by the API.
type RunSummary struct {
	RunID                  string         `json:"run_id"`
	Fingerprint            string         `json:"fingerprint"`
	Status                 string         `json:"status"`
	StartedAt              time.Time      `json:"started_at"`
	FinishedAt             time.Time      `json:"finished_at"`
	Records                int            `json:"records"`
	Clusters               int            `json:"clusters"`
	OrganizationDuplicates int            `json:"organization_duplicates"`
	IndividualDuplicates   int            `json:"individual_duplicates"`
	Products               []string       `json:"products,omitempty"`
	Warnings               map[string]int `json:"warnings,omitempty"`
	Notices                int            `json:"notices"`
}
