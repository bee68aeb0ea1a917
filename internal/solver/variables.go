package solver

import "fmt"

// MeetingKey identifies one weekly occurrence of a group.
type MeetingKey struct {
	GroupID    int64
	Occurrence int
}

func (k MeetingKey) String() string {
	return fmt.Sprintf("group %d #%d", k.GroupID, k.Occurrence)
}

// Value is a candidate placement for a meeting.
type Value struct {
	RoomID     int64
	TimeslotID int64
}

// Assignment maps every placed meeting to its room and timeslot.
type Assignment map[MeetingKey]Value

// variable is a meeting instance inside one relaxation iteration.
type variable struct {
	key       MeetingKey
	group     int // position in index.groups
	teacherID int64
	// degree is the number of other active groups taught by the same teacher.
	degree int
}

// expand creates the meeting variables for the given per-group targets,
// ordered by group id then occurrence.
func expand(idx *index, targets []int) []variable {
	idx.loadTeachers(targets)
	total := 0
	for _, t := range targets {
		total += t
	}
	vars := make([]variable, 0, total)
	for gi, group := range idx.groups {
		for occ := 0; occ < targets[gi]; occ++ {
			vars = append(vars, variable{
				key:       MeetingKey{GroupID: group.ID, Occurrence: occ},
				group:     gi,
				teacherID: group.TeacherID,
				degree:    idx.teacherLoad[group.TeacherID] - 1,
			})
		}
	}
	return vars
}
