package consultation

import (
	"time"

	"github.com/google/uuid"
)

// Severity is the coarse urgency classification derived from model output.
type Severity string

const (
	SeverityLow     Severity = "low"
	SeverityMedium  Severity = "medium"
	SeverityHigh    Severity = "high"
	SeverityUnknown Severity = "unknown"
)

// Message types stored in AI-turn metadata.
const (
	MessageTypeMedical      = "medical_consultation"
	MessageTypePrescription = "prescription_analysis"
)

// Session represents one consultation conversation. Sessions are created
// once and only ever grow by appended messages.
type Session struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       *uuid.UUID `json:"user_id,omitempty" db:"user_id"`
	SessionToken string     `json:"session_token" db:"session_token"`
	Symptoms     string     `json:"symptoms" db:"symptoms"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// ChatMessage is one turn in a session's append-only log. Ordering within a
// session is creation order; there is no sequence column.
type ChatMessage struct {
	ID             uuid.UUID        `json:"id" db:"id"`
	ConsultationID uuid.UUID        `json:"consultation_id" db:"consultation_id"`
	IsAI           bool             `json:"is_ai" db:"is_ai"`
	Message        string           `json:"message" db:"message"`
	Metadata       *MessageMetadata `json:"metadata,omitempty" db:"-"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

// MessageMetadata is the structured payload attached to AI turns. Medical
// turns fill the severity fields, prescription turns the medicine fields.
type MessageMetadata struct {
	Severity         Severity   `json:"severity,omitempty"`
	FollowUpRequired bool       `json:"follow_up_required,omitempty"`
	Recommendations  []string   `json:"recommendations,omitempty"`
	MessageType      string     `json:"message_type,omitempty"`
	Medicines        []Medicine `json:"medicines,omitempty"`
	DosageWarnings   []string   `json:"dosage_warnings,omitempty"`
}

// Medicine is one name/dosage pair extracted from prescription text.
type Medicine struct {
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
	// Filled in when the government registry recognises the name.
	RegisteredName string `json:"registered_name,omitempty"`
	LicenseID      string `json:"license_id,omitempty"`
}

// ParsedResponse holds the signals extracted from a medical model reply.
// Transient; it is persisted only as part of MessageMetadata.
type ParsedResponse struct {
	Severity         Severity
	FollowUpRequired bool
	Recommendations  []string
}

// ConsultResult is what the consult endpoint returns for every turn,
// including fallback turns.
type ConsultResult struct {
	Response         string   `json:"response"`
	Recommendations  []string `json:"recommendations"`
	Severity         Severity `json:"severity"`
	FollowUpRequired bool     `json:"followUpRequired"`
	SessionToken     string   `json:"sessionToken"`
}

// AnalyzeResult is the prescription-analysis counterpart. Error is set on
// the degraded path instead of returning a Go error to the handler.
type AnalyzeResult struct {
	Medicines      []Medicine `json:"medicines"`
	DosageWarnings []string   `json:"dosageWarnings"`
	Analysis       string     `json:"analysis,omitempty"`
	Error          string     `json:"error,omitempty"`
}
