package models

// Subject represents an academic subject.
type Subject struct {
	ID          int64  `db:"id" json:"id"`
	Name        string `db:"name" json:"name" validate:"required"`
	RequiresLab bool   `db:"requires_lab" json:"requires_lab"`
}
