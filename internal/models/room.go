package models

import "strings"

// RoomType classifies a room for lab placement rules.
type RoomType string

const (
	RoomTypeStandard   RoomType = "standard"
	RoomTypeLab        RoomType = "lab"
	RoomTypeAuditorium RoomType = "auditorium"
)

// ParseRoomType normalises user supplied room types. The second return is false for unknown values.
func ParseRoomType(raw string) (RoomType, bool) {
	switch RoomType(strings.ToLower(strings.TrimSpace(raw))) {
	case RoomTypeStandard:
		return RoomTypeStandard, true
	case RoomTypeLab:
		return RoomTypeLab, true
	case RoomTypeAuditorium:
		return RoomTypeAuditorium, true
	default:
		return "", false
	}
}

// Room is a physical teaching space.
type Room struct {
	ID       int64    `db:"id" json:"id"`
	Name     string   `db:"name" json:"name" validate:"required"`
	Type     RoomType `db:"type" json:"type" validate:"required,oneof=standard lab auditorium"`
	Capacity int      `db:"capacity" json:"capacity" validate:"gt=0"`
}

// IsLab reports whether lab-only subjects may use the room.
func (r Room) IsLab() bool {
	return r.Type == RoomTypeLab
}
