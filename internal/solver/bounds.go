package solver

// exceedsCapacity reports whether targets cannot fit the week whatever the
// assignment: a group or a teacher needs more meetings than there are
// timeslots, or the meetings outnumber the room-timeslot pairs that can host
// them. A true result is exactly what a full search would conclude.
func exceedsCapacity(idx *index, targets []int) bool {
	slots := len(idx.timeslots)
	labRooms := 0
	for _, room := range idx.rooms {
		if room.IsLab() {
			labRooms++
		}
	}

	total, labTotal := 0, 0
	perTeacher := make(map[int64]int)
	for gi, group := range idx.groups {
		t := targets[gi]
		if t == 0 {
			continue
		}
		if t > slots {
			return true
		}
		total += t
		if idx.requiresLab(group) {
			labTotal += t
		}
		perTeacher[group.TeacherID] += t
		if perTeacher[group.TeacherID] > slots {
			return true
		}
	}
	return total > slots*len(idx.rooms) || labTotal > slots*labRooms
}
