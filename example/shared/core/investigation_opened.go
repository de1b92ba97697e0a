package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/pericialabs/coordination-go/coordination"
)

// InvestigationOpenedEventType is the event type identifier.
const InvestigationOpenedEventType = "InvestigationOpened"

// InvestigationOpened represents when a vehicle investigation case is opened
// for a law firm.
type InvestigationOpened struct {
	coordination.EventRecord
	InvestigationID   InvestigationIDString
	Plate             PlateString
	VIN               VINString
	BuffetID          BuffetIDString
	RequestedByUserID UserIDString
}

type investigationOpenedPayload struct {
	InvestigationID   string `json:"investigation_id"`
	Plate             string `json:"plate"`
	VIN               string `json:"vin"`
	BuffetID          string `json:"buffet_id"`
	RequestedByUserID string `json:"requested_by_user_id"`
}

// BuildInvestigationOpened creates a new InvestigationOpened event.
func BuildInvestigationOpened(
	investigationID uuid.UUID,
	plate PlateString,
	vin VINString,
	buffetID uuid.UUID,
	requestedByUserID uuid.UUID,
	occurredAt time.Time,
) InvestigationOpened {

	event := InvestigationOpened{
		EventRecord:       coordination.BuildEventRecordAt(occurredAt),
		InvestigationID:   investigationID.String(),
		Plate:             plate,
		VIN:               vin,
		BuffetID:          buffetID.String(),
		RequestedByUserID: requestedByUserID.String(),
	}

	return event
}

// InvestigationOpenedFromJSON reconstructs an InvestigationOpened event from
// its record and serialized payload.
func InvestigationOpenedFromJSON(record coordination.EventRecord, payload []byte) (InvestigationOpened, error) {
	var p investigationOpenedPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return InvestigationOpened{}, err
	}

	return InvestigationOpened{
		EventRecord:       record,
		InvestigationID:   p.InvestigationID,
		Plate:             p.Plate,
		VIN:               p.VIN,
		BuffetID:          p.BuffetID,
		RequestedByUserID: p.RequestedByUserID,
	}, nil
}

// EventType returns the event type identifier.
func (e InvestigationOpened) EventType() coordination.EventTypeString {
	return InvestigationOpenedEventType
}

// PayloadToJSON serializes the event payload.
func (e InvestigationOpened) PayloadToJSON() ([]byte, error) {
	return json.Marshal(investigationOpenedPayload{
		InvestigationID:   e.InvestigationID,
		Plate:             e.Plate,
		VIN:               e.VIN,
		BuffetID:          e.BuffetID,
		RequestedByUserID: e.RequestedByUserID,
	})
}
