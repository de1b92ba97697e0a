package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/pericialabs/coordination-go/coordination"
)

// BuffetRegisteredEventType is the event type identifier.
const BuffetRegisteredEventType = "BuffetRegistered"

// BuffetRegistered represents when a new law firm is registered in the system.
type BuffetRegistered struct {
	coordination.EventRecord
	BuffetID    BuffetIDString
	Name        string
	CNPJ        string
	OwnerUserID UserIDString
}

type buffetRegisteredPayload struct {
	BuffetID    string `json:"buffet_id"`
	Name        string `json:"name"`
	CNPJ        string `json:"cnpj"`
	OwnerUserID string `json:"owner_user_id"`
}

// BuildBuffetRegistered creates a new BuffetRegistered event.
func BuildBuffetRegistered(
	buffetID uuid.UUID,
	name string,
	cnpj string,
	ownerUserID uuid.UUID,
	occurredAt time.Time,
) BuffetRegistered {

	event := BuffetRegistered{
		EventRecord: coordination.BuildEventRecordAt(occurredAt),
		BuffetID:    buffetID.String(),
		Name:        name,
		CNPJ:        cnpj,
		OwnerUserID: ownerUserID.String(),
	}

	return event
}

// BuffetRegisteredFromJSON reconstructs a BuffetRegistered event from its
// record and serialized payload.
func BuffetRegisteredFromJSON(record coordination.EventRecord, payload []byte) (BuffetRegistered, error) {
	var p buffetRegisteredPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return BuffetRegistered{}, err
	}

	return BuffetRegistered{
		EventRecord: record,
		BuffetID:    p.BuffetID,
		Name:        p.Name,
		CNPJ:        p.CNPJ,
		OwnerUserID: p.OwnerUserID,
	}, nil
}

// EventType returns the event type identifier.
func (e BuffetRegistered) EventType() coordination.EventTypeString {
	return BuffetRegisteredEventType
}

// PayloadToJSON serializes the event payload.
func (e BuffetRegistered) PayloadToJSON() ([]byte, error) {
	return json.Marshal(buffetRegisteredPayload{
		BuffetID:    e.BuffetID,
		Name:        e.Name,
		CNPJ:        e.CNPJ,
		OwnerUserID: e.OwnerUserID,
	})
}
