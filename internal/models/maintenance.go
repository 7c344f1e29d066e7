package models

import "time"

// ServiceTask is a named maintenance operation ("Vidange moteur", "Brake Pads").
type ServiceTask struct {
	ID   string `json:"id" bson:"id"`
	Name string `json:"name" bson:"name"`
}

// ServiceEntry is a completed maintenance visit for a vehicle.
type ServiceEntry struct {
	ID        string        `json:"id" bson:"_id,omitempty"`
	VehicleID string        `json:"vehicle_id" bson:"vehicle_id"`
	Date      time.Time     `json:"date" bson:"date"`
	Meter     *float64      `json:"meter,omitempty" bson:"meter,omitempty"` // odometer, in kilometers
	Tasks     []ServiceTask `json:"tasks" bson:"tasks"`
	Vendor    string        `json:"vendor" bson:"vendor"`
	Notes     string        `json:"notes" bson:"notes"`
	CreatedAt time.Time     `json:"created_at" bson:"created_at"`
}

// ServiceProgram groups recurring tasks applied to a set of vehicles.
type ServiceProgram struct {
	ID         string        `json:"id" bson:"_id,omitempty"`
	Name       string        `json:"name" bson:"name"`
	Frequency  string        `json:"frequency" bson:"frequency"` // free text: "3 months", "yearly", "quarterly"
	Active     bool          `json:"active" bson:"active"`
	VehicleIDs []string      `json:"vehicle_ids" bson:"vehicle_ids"`
	Tasks      []ServiceTask `json:"tasks" bson:"tasks"`
	CreatedAt  time.Time     `json:"created_at" bson:"created_at"`
}
