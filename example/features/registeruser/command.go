package registeruser

import (
	"time"

	"github.com/google/uuid"
)

// Command represents the intent to register a new user.
// It encapsulates all the necessary information required to execute the register user use case.
type Command struct {
	UserID     uuid.UUID
	Name       string
	Email      string
	TaxID      string
	Role       string
	OccurredAt time.Time
}

// BuildCommand creates a new Command with the provided parameters.
func BuildCommand(
	userID uuid.UUID,
	name string,
	email string,
	taxID string,
	role string,
	occurredAt time.Time,
) Command {

	return Command{
		UserID:     userID,
		Name:       name,
		Email:      email,
		TaxID:      taxID,
		Role:       role,
		OccurredAt: occurredAt,
	}
}
