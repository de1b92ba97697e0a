package shell

import (
	"github.com/pericialabs/coordination-go/example/shared/core"
)

// InvestigationStatus represents the lifecycle state of an investigation case.
type InvestigationStatus string

// Investigation lifecycle states.
const (
	InvestigationStatusOpen      InvestigationStatus = "open"
	InvestigationStatusCompleted InvestigationStatus = "completed"
	InvestigationStatusArchived  InvestigationStatus = "archived"
)

// User represents a registered user of the system.
type User struct {
	ID    core.UserIDString
	Name  string
	Email string
	TaxID string
	Role  string
}

// Buffet represents a law firm that requests investigations.
type Buffet struct {
	ID          core.BuffetIDString
	Name        string
	CNPJ        string
	OwnerUserID core.UserIDString
}

// Investigation represents a vehicle investigation case record.
type Investigation struct {
	ID                core.InvestigationIDString
	Plate             core.PlateString
	VIN               core.VINString
	BuffetID          core.BuffetIDString
	RequestedByUserID core.UserIDString
	Status            InvestigationStatus
	ReportSummary     string
}
