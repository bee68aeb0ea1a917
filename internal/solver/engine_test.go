package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable/internal/models"
)

func engineFor(t *testing.T, snap Snapshot) *engine {
	t.Helper()
	idx, err := newIndex(snap)
	require.NoError(t, err)
	targets := make([]int, len(idx.groups))
	for gi, g := range idx.groups {
		targets[gi] = g.FrequencyCount
	}
	return newEngine(idx, targets)
}

func cloneMask(mask [][]bool) [][]bool {
	out := make([][]bool, len(mask))
	for i := range mask {
		out[i] = append([]bool(nil), mask[i]...)
	}
	return out
}

func TestBuildDomainOrdersTimeslotsThenRooms(t *testing.T) {
	snap := Snapshot{
		Rooms: []models.Room{
			{ID: 9, Name: "Lab B", Type: models.RoomTypeLab, Capacity: 30},
			{ID: 4, Name: "Lab A", Type: models.RoomTypeLab, Capacity: 30},
			{ID: 1, Name: "R1", Type: models.RoomTypeStandard, Capacity: 30},
		},
		Teachers: []models.Teacher{{ID: 1, Name: "Pak Budi"}},
		Subjects: []models.Subject{{ID: 1, Name: "Kimia", RequiresLab: true}},
		Groups:   []models.Group{{ID: 1, SubjectID: 1, TeacherID: 1, StudentCount: 20, FrequencyCount: 1}},
		Timeslots: []models.Timeslot{
			{ID: 10, Day: 1, Slot: 0},
			{ID: 11, Day: 0, Slot: 5},
			{ID: 12, Day: 0, Slot: 1},
		},
	}

	values, err := BuildDomain(snap, 1)
	require.NoError(t, err)
	assert.Equal(t, []Value{
		{RoomID: 4, TimeslotID: 12}, {RoomID: 9, TimeslotID: 12},
		{RoomID: 4, TimeslotID: 11}, {RoomID: 9, TimeslotID: 11},
		{RoomID: 4, TimeslotID: 10}, {RoomID: 9, TimeslotID: 10},
	}, values)

	_, err = BuildDomain(snap, 2)
	assert.ErrorIs(t, err, ErrInvalidSnapshot)
}

func TestConflictsCoversRoomTeacherAndGroup(t *testing.T) {
	a := variable{group: 0, teacherID: 1}
	sameGroup := variable{group: 0, teacherID: 1}
	sameTeacher := variable{group: 1, teacherID: 1}
	other := variable{group: 2, teacherID: 2}

	at := func(room, ts int64) Value { return Value{RoomID: room, TimeslotID: ts} }

	assert.True(t, conflicts(a, at(1, 1), other, at(1, 1)), "same room")
	assert.False(t, conflicts(a, at(1, 1), other, at(2, 1)))
	assert.True(t, conflicts(a, at(1, 1), sameTeacher, at(2, 1)), "same teacher")
	assert.True(t, conflicts(a, at(1, 1), sameGroup, at(2, 1)), "same group")
	assert.False(t, conflicts(a, at(1, 1), sameTeacher, at(1, 2)), "different timeslots never clash")
}

func TestForwardCheckRestoreIsExact(t *testing.T) {
	e := engineFor(t, schoolSnapshot())
	before := cloneMask(e.removed)
	sizes := append([]int(nil), e.size...)

	x := e.selectVariable()
	v := e.orderValues(x)[0]
	e.assign(x, v)
	log, ok := e.forwardCheck(x, v)
	require.True(t, ok)
	require.NotEmpty(t, log)
	for _, p := range log {
		assert.NotEqual(t, x, p.variable)
		assert.True(t, e.removed[p.variable][p.position])
		assert.True(t, conflicts(e.vars[x], v, e.vars[p.variable], e.base[p.variable][p.position]))
	}

	e.restore(log)
	e.unassign(x)
	assert.Equal(t, before, e.removed)
	assert.Equal(t, sizes, e.size)
}

func TestForwardCheckReportsWipeOut(t *testing.T) {
	snap := Snapshot{
		Rooms:    []models.Room{{ID: 1, Name: "R1", Type: models.RoomTypeStandard, Capacity: 30}},
		Teachers: []models.Teacher{{ID: 1, Name: "Bu Sari"}, {ID: 2, Name: "Pak Budi"}},
		Subjects: []models.Subject{{ID: 1, Name: "Matematika"}},
		Groups: []models.Group{
			{ID: 1, SubjectID: 1, TeacherID: 1, StudentCount: 20, FrequencyCount: 1},
			{ID: 2, SubjectID: 1, TeacherID: 2, StudentCount: 20, FrequencyCount: 1},
		},
		Timeslots: defaultTimeslots(1, 1),
	}
	e := engineFor(t, snap)
	v := e.base[0][0]
	e.assign(0, v)

	log, ok := e.forwardCheck(0, v)
	assert.False(t, ok)
	assert.Equal(t, undoLog{{variable: 1, position: 0}}, log)
	assert.Equal(t, 0, e.size[1])

	e.restore(log)
	assert.Equal(t, 1, e.size[1])
	assert.False(t, e.removed[1][0])
}

func TestSelectVariablePrefersSmallestDomainThenDegree(t *testing.T) {
	snap := Snapshot{
		Rooms: []models.Room{
			{ID: 1, Name: "R1", Type: models.RoomTypeStandard, Capacity: 40},
			{ID: 2, Name: "Lab", Type: models.RoomTypeLab, Capacity: 40},
		},
		Teachers: []models.Teacher{{ID: 1, Name: "Bu Sari"}, {ID: 2, Name: "Pak Budi"}, {ID: 3, Name: "Bu Rina"}},
		Subjects: []models.Subject{{ID: 1, Name: "Matematika"}, {ID: 2, Name: "Kimia", RequiresLab: true}},
		Groups: []models.Group{
			{ID: 1, SubjectID: 1, TeacherID: 2, StudentCount: 20, FrequencyCount: 1},
			{ID: 2, SubjectID: 1, TeacherID: 1, StudentCount: 20, FrequencyCount: 1},
			{ID: 3, SubjectID: 1, TeacherID: 1, StudentCount: 20, FrequencyCount: 1},
			{ID: 4, SubjectID: 2, TeacherID: 3, StudentCount: 20, FrequencyCount: 2},
		},
		Timeslots: defaultTimeslots(1, 4),
	}
	e := engineFor(t, snap)

	// Lab meetings have half the candidates of everything else.
	x := e.selectVariable()
	assert.Equal(t, MeetingKey{GroupID: 4, Occurrence: 0}, e.vars[x].key)

	e.assign(x, e.base[x][0])
	e.assign(x+1, e.base[x+1][1])
	// Equal domains: teacher 1 leads two active groups, so its groups win over group 1.
	x = e.selectVariable()
	assert.Equal(t, MeetingKey{GroupID: 2, Occurrence: 0}, e.vars[x].key)

	for i := range e.vars {
		if !e.assigned[i] {
			e.assign(i, e.base[i][0])
		}
	}
	assert.Equal(t, -1, e.selectVariable())
}

func TestOrderValuesLeastConstrainingFirst(t *testing.T) {
	snap := Snapshot{
		Rooms: []models.Room{
			{ID: 1, Name: "R1", Type: models.RoomTypeStandard, Capacity: 40},
			{ID: 2, Name: "R2", Type: models.RoomTypeStandard, Capacity: 40},
		},
		Teachers: []models.Teacher{{ID: 1, Name: "Bu Sari"}, {ID: 2, Name: "Pak Budi"}},
		Subjects: []models.Subject{{ID: 1, Name: "Matematika"}},
		Groups: []models.Group{
			{ID: 1, SubjectID: 1, TeacherID: 1, StudentCount: 20, FrequencyCount: 1},
			{ID: 2, SubjectID: 1, TeacherID: 2, StudentCount: 20, FrequencyCount: 1},
		},
		Timeslots: defaultTimeslots(1, 2),
	}
	e := engineFor(t, snap)
	// Group 2 may only use room 2 in the second period.
	for i, w := range e.base[1] {
		if w != (Value{RoomID: 2, TimeslotID: 2}) {
			e.removed[1][i] = true
			e.size[1]--
		}
	}

	ordered := e.orderValues(0)
	assert.Equal(t, []Value{
		{RoomID: 1, TimeslotID: 1},
		{RoomID: 2, TimeslotID: 1},
		{RoomID: 1, TimeslotID: 2},
		{RoomID: 2, TimeslotID: 2},
	}, ordered)
	assert.Equal(t, 1, e.constrainingCost(0, Value{RoomID: 2, TimeslotID: 2}))
	assert.Equal(t, 0, e.constrainingCost(0, Value{RoomID: 1, TimeslotID: 2}))
}

func TestSearchWithoutVariablesSucceeds(t *testing.T) {
	snap := schoolSnapshot()
	idx, err := newIndex(snap)
	require.NoError(t, err)
	e := newEngine(idx, make([]int, len(idx.groups)))
	assert.True(t, e.search())
	assert.Empty(t, e.assignment())
}
