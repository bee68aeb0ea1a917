package models

// Teacher represents an instructor. A teacher can lead several groups but only one meeting per timeslot.
type Teacher struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name" validate:"required"`
}
