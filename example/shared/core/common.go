package core

import (
	jsoniter "github.com/json-iterator/go"
)

// Instead of implementing full value objects, I'm using some alias types here ...

// UserIDString represents a user identifier
type UserIDString = string

// BuffetIDString represents a law firm identifier
type BuffetIDString = string

// InvestigationIDString represents an investigation case identifier
type InvestigationIDString = string

// PlateString represents a vehicle license plate
type PlateString = string

// VINString represents a vehicle identification number
type VINString = string

var json = jsoniter.ConfigFastest
