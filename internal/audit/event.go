package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Actions recorded for mutating requests.
const (
	ActionCrimeSave     = "crime.save"
	ActionCrimeDelete   = "crime.delete"
	ActionCrimeClear    = "crime.clear"
	ActionThemeSelect   = "theme.select"
	ActionBackupCreate  = "backup.create"
	ActionBackupRestore = "backup.restore"
	ActionStorageImport = "storage.import"
	ActionStorageRemove = "storage.remove"
)

// Outcomes of an audited request.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Target names the record an action touched.
type Target struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
}

// Event is one line of the change trail.
type Event struct {
	ID            string            `json:"event_id"`
	Timestamp     time.Time         `json:"timestamp"`
	Action        string            `json:"action"`
	Outcome       string            `json:"outcome"`
	Target        Target            `json:"target"`
	RequestID     string            `json:"request_id,omitempty"`
	TraceID       string            `json:"trace_id,omitempty"`
	ClientIP      string            `json:"client_ip,omitempty"`
	Method        string            `json:"method,omitempty"`
	Route         string            `json:"route,omitempty"`
	Status        int               `json:"status,omitempty"`
	PayloadDigest string            `json:"payload_digest,omitempty"`
	Details       map[string]string `json:"details,omitempty"`
}

// OutcomeFor classifies an HTTP status code.
func OutcomeFor(status int) string {
	switch {
	case status >= 500:
		return OutcomeError
	case status >= 400:
		return OutcomeRejected
	default:
		return OutcomeSuccess
	}
}

// Digest returns the hex SHA-256 of a request body, or "" for an empty body.
func Digest(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}
