package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/pericialabs/coordination-go/coordination"
)

// InvestigationCompletedEventType is the event type identifier.
const InvestigationCompletedEventType = "InvestigationCompleted"

// InvestigationCompleted represents when a vehicle investigation case is
// completed with a final report.
type InvestigationCompleted struct {
	coordination.EventRecord
	InvestigationID   InvestigationIDString
	CompletedByUserID UserIDString
	ReportSummary     string
}

type investigationCompletedPayload struct {
	InvestigationID   string `json:"investigation_id"`
	CompletedByUserID string `json:"completed_by_user_id"`
	ReportSummary     string `json:"report_summary"`
}

// BuildInvestigationCompleted creates a new InvestigationCompleted event.
func BuildInvestigationCompleted(
	investigationID uuid.UUID,
	completedByUserID uuid.UUID,
	reportSummary string,
	occurredAt time.Time,
) InvestigationCompleted {

	event := InvestigationCompleted{
		EventRecord:       coordination.BuildEventRecordAt(occurredAt),
		InvestigationID:   investigationID.String(),
		CompletedByUserID: completedByUserID.String(),
		ReportSummary:     reportSummary,
	}

	return event
}

// InvestigationCompletedFromJSON reconstructs an InvestigationCompleted event
// from its record and serialized payload.
func InvestigationCompletedFromJSON(record coordination.EventRecord, payload []byte) (InvestigationCompleted, error) {
	var p investigationCompletedPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return InvestigationCompleted{}, err
	}

	return InvestigationCompleted{
		EventRecord:       record,
		InvestigationID:   p.InvestigationID,
		CompletedByUserID: p.CompletedByUserID,
		ReportSummary:     p.ReportSummary,
	}, nil
}

// EventType returns the event type identifier.
func (e InvestigationCompleted) EventType() coordination.EventTypeString {
	return InvestigationCompletedEventType
}

// PayloadToJSON serializes the event payload.
func (e InvestigationCompleted) PayloadToJSON() ([]byte, error) {
	return json.Marshal(investigationCompletedPayload{
		InvestigationID:   e.InvestigationID,
		CompletedByUserID: e.CompletedByUserID,
		ReportSummary:     e.ReportSummary,
	})
}
