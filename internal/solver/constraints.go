package solver

// conflicts reports whether two placements clash. Placements in different
// timeslots never clash; in the same timeslot they clash when they share the
// room, the teacher or the group.
func conflicts(a variable, av Value, b variable, bv Value) bool {
	if av.TimeslotID != bv.TimeslotID {
		return false
	}
	return av.RoomID == bv.RoomID || a.teacherID == b.teacherID || a.group == b.group
}

// isValid checks a candidate value for x against every assigned variable.
func (e *engine) isValid(x int, v Value) bool {
	for y := range e.vars {
		if y == x || !e.assigned[y] {
			continue
		}
		if conflicts(e.vars[x], v, e.vars[y], e.values[y]) {
			return false
		}
	}
	return true
}
