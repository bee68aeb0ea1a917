package models

// ScheduleEntry is one persisted meeting: a group occupying a room at a timeslot.
// Several entries may share a group.
type ScheduleEntry struct {
	ID         int64 `db:"id" json:"id"`
	GroupID    int64 `db:"group_id" json:"group_id"`
	RoomID     int64 `db:"room_id" json:"room_id"`
	TimeslotID int64 `db:"timeslot_id" json:"timeslot_id"`
}

// ScheduleView selects which slice of the schedule is displayed.
type ScheduleView string

const (
	ScheduleViewFull    ScheduleView = "full"
	ScheduleViewGroup   ScheduleView = "group"
	ScheduleViewTeacher ScheduleView = "teacher"
	ScheduleViewRoom    ScheduleView = "room"
)

// ScheduleFilter narrows schedule listings to a single group, teacher or room.
type ScheduleFilter struct {
	View ScheduleView
	ID   int64
}

// ScheduleEntryDetail joins an entry with display data.
type ScheduleEntryDetail struct {
	EntryID     int64  `db:"entry_id" json:"entry_id"`
	GroupID     int64  `db:"group_id" json:"group_id"`
	RoomID      int64  `db:"room_id" json:"room_id"`
	RoomName    string `db:"room_name" json:"room_name"`
	SubjectName string `db:"subject_name" json:"subject_name"`
	TeacherID   int64  `db:"teacher_id" json:"teacher_id"`
	TeacherName string `db:"teacher_name" json:"teacher_name"`
	TimeslotID  int64  `db:"timeslot_id" json:"timeslot_id"`
	Day         int    `db:"day" json:"day"`
	Slot        int    `db:"slot" json:"slot"`
}

// ScheduleConflict describes a clash detected while validating a manual change.
type ScheduleConflict struct {
	Dimension  string  `json:"dimension"`
	TimeslotID int64   `json:"timeslot_id"`
	GroupIDs   []int64 `json:"group_ids"`
	Message    string  `json:"message"`
}

// ScheduleConflictError is returned when a manual change would break a scheduling invariant.
type ScheduleConflictError struct {
	Message   string             `json:"message"`
	Conflicts []ScheduleConflict `json:"conflicts"`
}

// Error implements the error interface for conflict errors.
func (e *ScheduleConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
