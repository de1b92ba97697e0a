package openinvestigation

import (
	"time"

	"github.com/google/uuid"

	"github.com/pericialabs/coordination-go/example/shared/core"
)

// Command represents the intent to open a vehicle investigation case.
// It encapsulates all the necessary information required to execute the open investigation use case.
type Command struct {
	InvestigationID   uuid.UUID
	Plate             core.PlateString
	VIN               core.VINString
	BuffetID          uuid.UUID
	RequestedByUserID uuid.UUID
	OccurredAt        time.Time
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	investigationID uuid.UUID,
	plate core.PlateString,
	vin core.VINString,
	buffetID uuid.UUID,
	requestedByUserID uuid.UUID,
	occurredAt time.Time,
) Command {

	return Command{
		InvestigationID:   investigationID,
		Plate:             plate,
		VIN:               vin,
		BuffetID:          buffetID,
		RequestedByUserID: requestedByUserID,
		OccurredAt:        occurredAt,
	}
}
