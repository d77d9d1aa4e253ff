package models

import "time"

// AdvisoryResult is the risk assessment returned for a record.
type AdvisoryResult struct {
	Score           int      `json:"score"`
	Vulnerabilities []string `json:"vulnerabilities"`
	Recommendations []string `json:"recommendations"`
}

// AttachedAudit is the single audit result currently shown next to a record.
type AttachedAudit struct {
	RecordID    string
	Result      AdvisoryResult
	CompletedAt time.Time
}
