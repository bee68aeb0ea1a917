// Package solver assigns weekly group meetings to rooms and timeslots.
//
// The engine is a pure function of its input: a read-only Snapshot goes in and
// a Result (or a typed error) comes out. Search is depth-first backtracking
// with MRV/degree variable ordering, least-constraining-value ordering and
// forward checking. When no complete assignment exists, the relaxation loop
// lowers the weekly meeting target of the most demanding group and starts
// over from scratch.
//
// Ties are always broken on the canonical timeslot order (day ascending, then
// slot ascending), so identical snapshots yield identical schedules.
package solver

import (
	"fmt"
	"sort"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// Snapshot is the read-only entity set a solve runs against.
type Snapshot struct {
	Rooms     []models.Room
	Teachers  []models.Teacher
	Subjects  []models.Subject
	Groups    []models.Group
	Timeslots []models.Timeslot
}

// index is the snapshot reorganised for lookups. Slices are sorted by id and
// timeslots by canonical order; maps are only used for id lookups so that
// iteration order never leaks into the search.
type index struct {
	rooms     []models.Room
	groups    []models.Group
	timeslots []models.Timeslot

	subjects map[int64]models.Subject
	teachers map[int64]models.Teacher

	timeslotRank map[int64]int
	roomRank     map[int64]int
	// teacherLoad counts groups per teacher, used by the degree heuristic.
	teacherLoad map[int64]int
}

func newIndex(snap Snapshot) (*index, error) {
	idx := &index{
		rooms:        append([]models.Room(nil), snap.Rooms...),
		groups:       append([]models.Group(nil), snap.Groups...),
		timeslots:    append([]models.Timeslot(nil), snap.Timeslots...),
		subjects:     make(map[int64]models.Subject, len(snap.Subjects)),
		teachers:     make(map[int64]models.Teacher, len(snap.Teachers)),
		timeslotRank: make(map[int64]int, len(snap.Timeslots)),
		roomRank:     make(map[int64]int, len(snap.Rooms)),
		teacherLoad:  make(map[int64]int),
	}

	sort.Slice(idx.rooms, func(i, j int) bool { return idx.rooms[i].ID < idx.rooms[j].ID })
	sort.Slice(idx.groups, func(i, j int) bool { return idx.groups[i].ID < idx.groups[j].ID })
	sort.Slice(idx.timeslots, func(i, j int) bool { return idx.timeslots[i].Before(idx.timeslots[j]) })

	for _, subject := range snap.Subjects {
		if _, dup := idx.subjects[subject.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate subject id %d", ErrInvalidSnapshot, subject.ID)
		}
		idx.subjects[subject.ID] = subject
	}
	for _, teacher := range snap.Teachers {
		if _, dup := idx.teachers[teacher.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate teacher id %d", ErrInvalidSnapshot, teacher.ID)
		}
		idx.teachers[teacher.ID] = teacher
	}
	for i, room := range idx.rooms {
		if _, dup := idx.roomRank[room.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate room id %d", ErrInvalidSnapshot, room.ID)
		}
		if room.Capacity <= 0 {
			return nil, fmt.Errorf("%w: room %d capacity must be positive", ErrInvalidSnapshot, room.ID)
		}
		idx.roomRank[room.ID] = i
	}

	cells := make(map[[2]int]int64, len(idx.timeslots))
	for i, ts := range idx.timeslots {
		if _, dup := idx.timeslotRank[ts.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate timeslot id %d", ErrInvalidSnapshot, ts.ID)
		}
		if ts.Day < 0 || ts.Day >= models.DaysPerWeek || ts.Slot < 0 || ts.Slot >= models.SlotsPerDay {
			return nil, fmt.Errorf("%w: timeslot %d out of range (day %d, slot %d)", ErrInvalidSnapshot, ts.ID, ts.Day, ts.Slot)
		}
		cell := [2]int{ts.Day, ts.Slot}
		if other, dup := cells[cell]; dup {
			return nil, fmt.Errorf("%w: timeslots %d and %d share day %d slot %d", ErrInvalidSnapshot, other, ts.ID, ts.Day, ts.Slot)
		}
		cells[cell] = ts.ID
		idx.timeslotRank[ts.ID] = i
	}

	seen := make(map[int64]struct{}, len(idx.groups))
	for _, group := range idx.groups {
		if _, dup := seen[group.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate group id %d", ErrInvalidSnapshot, group.ID)
		}
		seen[group.ID] = struct{}{}
		if _, ok := idx.subjects[group.SubjectID]; !ok {
			return nil, fmt.Errorf("%w: group %d references unknown subject %d", ErrInvalidSnapshot, group.ID, group.SubjectID)
		}
		if _, ok := idx.teachers[group.TeacherID]; !ok {
			return nil, fmt.Errorf("%w: group %d references unknown teacher %d", ErrInvalidSnapshot, group.ID, group.TeacherID)
		}
		if group.StudentCount <= 0 {
			return nil, fmt.Errorf("%w: group %d student count must be positive", ErrInvalidSnapshot, group.ID)
		}
		if group.FrequencyCount < 0 {
			return nil, fmt.Errorf("%w: group %d frequency must not be negative", ErrInvalidSnapshot, group.ID)
		}
	}

	return idx, nil
}

func (idx *index) requiresLab(group models.Group) bool {
	return idx.subjects[group.SubjectID].RequiresLab
}

// loadTeachers recomputes teacherLoad for the groups that still have meetings to place.
func (idx *index) loadTeachers(targets []int) {
	for k := range idx.teacherLoad {
		delete(idx.teacherLoad, k)
	}
	for gi, group := range idx.groups {
		if targets[gi] > 0 {
			idx.teacherLoad[group.TeacherID]++
		}
	}
}
