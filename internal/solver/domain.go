package solver

import (
	"fmt"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// ReasonKind classifies why a group cannot be placed anywhere.
type ReasonKind string

const (
	ReasonTooSmall    ReasonKind = "too_small"
	ReasonNotLab      ReasonKind = "not_lab"
	ReasonNoRooms     ReasonKind = "no_rooms"
	ReasonNoTimeslots ReasonKind = "no_timeslots"
)

// RoomReason explains why one room (or the whole grid) rejects a group.
type RoomReason struct {
	RoomID   int64      `json:"room_id,omitempty"`
	RoomName string     `json:"room_name,omitempty"`
	Kind     ReasonKind `json:"kind"`
	Detail   string     `json:"detail"`
}

// GroupDiagnostic lists the reasons a group has an empty domain.
type GroupDiagnostic struct {
	GroupID     int64        `json:"group_id"`
	SubjectName string       `json:"subject_name"`
	TeacherName string       `json:"teacher_name"`
	Reasons     []RoomReason `json:"reasons"`
}

// rejectRoom returns the reason a room cannot host a group, or nil. Capacity
// is checked first so an undersized lab reports "too small".
func rejectRoom(room models.Room, studentCount int, requiresLab bool) *RoomReason {
	if room.Capacity < studentCount {
		return &RoomReason{
			RoomID:   room.ID,
			RoomName: room.Name,
			Kind:     ReasonTooSmall,
			Detail:   fmt.Sprintf("Room %s too small (%d < %d)", room.Name, room.Capacity, studentCount),
		}
	}
	if requiresLab && !room.IsLab() {
		return &RoomReason{
			RoomID:   room.ID,
			RoomName: room.Name,
			Kind:     ReasonNotLab,
			Detail:   fmt.Sprintf("Room %s not lab", room.Name),
		}
	}
	return nil
}

// buildDomain lists every legal value for a meeting of the group, in
// canonical timeslot order and by room id within a timeslot.
func buildDomain(idx *index, group models.Group) []Value {
	lab := idx.requiresLab(group)
	rooms := make([]int64, 0, len(idx.rooms))
	for _, room := range idx.rooms {
		if rejectRoom(room, group.StudentCount, lab) == nil {
			rooms = append(rooms, room.ID)
		}
	}
	values := make([]Value, 0, len(rooms)*len(idx.timeslots))
	for _, ts := range idx.timeslots {
		for _, roomID := range rooms {
			values = append(values, Value{RoomID: roomID, TimeslotID: ts.ID})
		}
	}
	return values
}

// diagnose reports every group that has meetings to place but no legal value.
func diagnose(idx *index) []GroupDiagnostic {
	var out []GroupDiagnostic
	for _, group := range idx.groups {
		if group.FrequencyCount == 0 {
			continue
		}
		if len(buildDomain(idx, group)) > 0 {
			continue
		}
		diag := GroupDiagnostic{
			GroupID:     group.ID,
			SubjectName: idx.subjects[group.SubjectID].Name,
			TeacherName: idx.teachers[group.TeacherID].Name,
		}
		lab := idx.requiresLab(group)
		for _, room := range idx.rooms {
			if reason := rejectRoom(room, group.StudentCount, lab); reason != nil {
				diag.Reasons = append(diag.Reasons, *reason)
			}
		}
		if len(idx.rooms) == 0 {
			diag.Reasons = append(diag.Reasons, RoomReason{Kind: ReasonNoRooms, Detail: "no rooms defined"})
		}
		if len(idx.timeslots) == 0 {
			diag.Reasons = append(diag.Reasons, RoomReason{Kind: ReasonNoTimeslots, Detail: "no timeslots defined"})
		}
		out = append(out, diag)
	}
	return out
}

// BuildDomain returns the static candidate values for one group.
func BuildDomain(snap Snapshot, groupID int64) ([]Value, error) {
	idx, err := newIndex(snap)
	if err != nil {
		return nil, err
	}
	for _, group := range idx.groups {
		if group.ID == groupID {
			return buildDomain(idx, group), nil
		}
	}
	return nil, fmt.Errorf("%w: unknown group %d", ErrInvalidSnapshot, groupID)
}

// Diagnose runs the structural feasibility check on its own, without searching.
func Diagnose(snap Snapshot) ([]GroupDiagnostic, error) {
	idx, err := newIndex(snap)
	if err != nil {
		return nil, err
	}
	return diagnose(idx), nil
}
