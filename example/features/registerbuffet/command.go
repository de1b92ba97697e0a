package registerbuffet

import (
	"time"

	"github.com/google/uuid"
)

// Command represents the intent to register a new law firm.
// It encapsulates all the necessary information required to execute the register buffet use case.
type Command struct {
	BuffetID    uuid.UUID
	Name        string
	CNPJ        string
	OwnerUserID uuid.UUID
	OccurredAt  time.Time
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	buffetID uuid.UUID,
	name string,
	cnpj string,
	ownerUserID uuid.UUID,
	occurredAt time.Time,
) Command {

	return Command{
		BuffetID:    buffetID,
		Name:        name,
		CNPJ:        cnpj,
		OwnerUserID: ownerUserID,
		OccurredAt:  occurredAt,
	}
}
