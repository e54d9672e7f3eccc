package domain

import (
	"strings"
	"time"
)

// VehicleType is the two-class pricing dimension.
type VehicleType string

const (
	VehicleTypeTwoWheeler  VehicleType = "two_wheeler"
	VehicleTypeFourWheeler VehicleType = "four_wheeler"
)

// IsValid reports whether the vehicle type is one of the known classes.
func (t VehicleType) IsValid() bool {
	return t == VehicleTypeTwoWheeler || t == VehicleTypeFourWheeler
}

// Vehicle is identified by its registration number ("MH-12-AB-1234").
type Vehicle struct {
	RegistrationNumber string      `json:"registration_number"`
	VehicleType        VehicleType `json:"vehicle_type"`
	CreatedAt          time.Time   `json:"created_at"`
}

// NormalizeRegistration trims spaces and upper-cases a registration number.
func NormalizeRegistration(reg string) string {
	return strings.ToUpper(strings.ReplaceAll(reg, " ", ""))
}

// Validate checks vehicle data and normalizes the registration number.
func (v *Vehicle) Validate() error {
	if v.RegistrationNumber == "" {
		return ErrInvalidRegistration
	}
	v.RegistrationNumber = NormalizeRegistration(v.RegistrationNumber)
	if len(v.RegistrationNumber) < 5 || len(v.RegistrationNumber) > 20 {
		return ErrInvalidRegistration
	}
	if !v.VehicleType.IsValid() {
		return ErrInvalidVehicleType
	}
	return nil
}
