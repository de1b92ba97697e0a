package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/pericialabs/coordination-go/coordination"
)

// UserRegisteredEventType is the event type identifier.
const UserRegisteredEventType = "UserRegistered"

// UserRegistered represents when a new user is registered in the system.
type UserRegistered struct {
	coordination.EventRecord
	UserID UserIDString
	Name   string
	Email  string
	TaxID  string
	Role   string
}

type userRegisteredPayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	TaxID  string `json:"tax_id"`
	Role   string `json:"role"`
}

// BuildUserRegistered creates a new UserRegistered event.
func BuildUserRegistered(
	userID uuid.UUID,
	name string,
	email string,
	taxID string,
	role string,
	occurredAt time.Time,
) UserRegistered {

	event := UserRegistered{
		EventRecord: coordination.BuildEventRecordAt(occurredAt),
		UserID:      userID.String(),
		Name:        name,
		Email:       email,
		TaxID:       taxID,
		Role:        role,
	}

	return event
}

// UserRegisteredFromJSON reconstructs a UserRegistered event from its
// record and serialized payload.
func UserRegisteredFromJSON(record coordination.EventRecord, payload []byte) (UserRegistered, error) {
	var p userRegisteredPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return UserRegistered{}, err
	}

	return UserRegistered{
		EventRecord: record,
		UserID:      p.UserID,
		Name:        p.Name,
		Email:       p.Email,
		TaxID:       p.TaxID,
		Role:        p.Role,
	}, nil
}

// EventType returns the event type identifier.
func (e UserRegistered) EventType() coordination.EventTypeString {
	return UserRegisteredEventType
}

// PayloadToJSON serializes the event payload.
func (e UserRegistered) PayloadToJSON() ([]byte, error) {
	return json.Marshal(userRegisteredPayload{
		UserID: e.UserID,
		Name:   e.Name,
		Email:  e.Email,
		TaxID:  e.TaxID,
		Role:   e.Role,
	})
}
