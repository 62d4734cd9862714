package domain

import "time"

const (
	DecodeSourceCache    = "cache"
	DecodeSourceVPIC     = "vpic"
	DecodeSourceFallback = "fallback"
)

// DecodedVehicle es la respuesta del adaptador de decodificacion de VIN.
type DecodedVehicle struct {
	Vehicle         VehicleDescriptor `json:"vehicle"`
	Manufacturer    string            `json:"manufacturer,omitempty"`
	Source          string            `json:"source"`
	CheckDigitValid bool              `json:"check_digit_valid"`
	DecodedAt       time.Time         `json:"decoded_at"`
}
