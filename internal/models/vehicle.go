package models

import "time"

// Vehicle represents a fleet vehicle owned by a user.
type Vehicle struct {
	ID        string    `bson:"_id,omitempty" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	Name      string    `bson:"name" json:"name"`
	Make      string    `bson:"make" json:"make"`
	Model     string    `bson:"model" json:"model"`
	Year      int       `bson:"year" json:"year"`
	Status    string    `bson:"status" json:"status"` // "active" or "inactive"
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// Age returns the vehicle age in whole calendar years at now.
func (v Vehicle) Age(now time.Time) int {
	return now.Year() - v.Year
}
