package completeinvestigation

import (
	"time"

	"github.com/google/uuid"
)

// Command represents the intent to complete a vehicle investigation case.
// It encapsulates all the necessary information required to execute the complete investigation use case.
type Command struct {
	InvestigationID   uuid.UUID
	CompletedByUserID uuid.UUID
	ReportSummary     string
	OccurredAt        time.Time
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	investigationID uuid.UUID,
	completedByUserID uuid.UUID,
	reportSummary string,
	occurredAt time.Time,
) Command {

	return Command{
		InvestigationID:   investigationID,
		CompletedByUserID: completedByUserID,
		ReportSummary:     reportSummary,
		OccurredAt:        occurredAt,
	}
}
