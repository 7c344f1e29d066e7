package models

import (
	"strings"
	"time"
)

// RenewalType is the administrative obligation a renewal tracks.
type RenewalType string

const (
	RenewalRegistration RenewalType = "REGISTRATION"
	RenewalInsurance    RenewalType = "INSURANCE"
	RenewalInspection   RenewalType = "INSPECTION"
	RenewalEmissionTest RenewalType = "EMISSION_TEST"
	RenewalOther        RenewalType = "OTHER"
)

var renewalLabels = map[RenewalType]string{
	RenewalRegistration: "immatriculation",
	RenewalInsurance:    "assurance",
	RenewalInspection:   "contrôle technique",
	RenewalEmissionTest: "test d'émission",
	RenewalOther:        "renouvellement",
}

// IsValidRenewalType checks if a renewal type is valid
func IsValidRenewalType(t RenewalType) bool {
	_, ok := renewalLabels[t]
	return ok
}

// Label returns the human-readable (French) name used in notifications.
// Unknown types fall back to the lower-cased raw value.
func (t RenewalType) Label() string {
	if label, ok := renewalLabels[t]; ok {
		return label
	}
	return strings.ToLower(string(t))
}

// RenewalStatus is the lifecycle state of a vehicle renewal.
type RenewalStatus string

const (
	RenewalDue       RenewalStatus = "DUE"
	RenewalOverdue   RenewalStatus = "OVERDUE"
	RenewalCompleted RenewalStatus = "COMPLETED"
)

// OpenRenewalStatuses are the statuses a renewal can be promoted from or notified for.
var OpenRenewalStatuses = []RenewalStatus{RenewalDue, RenewalOverdue}

// IsOpen reports whether the status still needs attention.
func (s RenewalStatus) IsOpen() bool {
	return s == RenewalDue || s == RenewalOverdue
}

// CanAdvanceTo mirrors ReminderStatus.CanAdvanceTo for renewals.
func (s RenewalStatus) CanAdvanceTo(next RenewalStatus) bool {
	switch s {
	case RenewalDue:
		return next == RenewalOverdue || next == RenewalCompleted
	case RenewalOverdue:
		return next == RenewalCompleted
	default:
		return false
	}
}

// VehicleRenewal is a projected compliance obligation for a vehicle.
type VehicleRenewal struct {
	ID        string        `json:"id" bson:"_id,omitempty"`
	VehicleID string        `json:"vehicle_id" bson:"vehicle_id"`
	Type      RenewalType   `json:"type" bson:"type"`
	Status    RenewalStatus `json:"status" bson:"status"`
	DueDate   time.Time     `json:"due_date" bson:"due_date"`
	Provider  string        `json:"provider" bson:"provider"` // label only, not a vendor reference
	OpenKey   string        `json:"-" bson:"open_key,omitempty"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}

// RenewalOpenKey returns the uniqueness key of an open renewal.
func RenewalOpenKey(vehicleID string, t RenewalType) string {
	return vehicleID + "|" + string(t)
}
