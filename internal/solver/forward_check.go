package solver

// prunedValue records one value struck from a variable's domain.
type prunedValue struct {
	variable int
	position int // index into engine.base[variable]
}

// undoLog lists exactly what one forward-checking step removed, in removal order.
type undoLog []prunedValue

// forwardCheck removes from every unassigned variable the values that clash
// with x=v. It stops at the first variable whose domain empties and reports
// false; the returned log always covers every removal made so it can be
// restored either way.
func (e *engine) forwardCheck(x int, v Value) (undoLog, bool) {
	var log undoLog
	for y := range e.vars {
		if y == x || e.assigned[y] {
			continue
		}
		for i, w := range e.base[y] {
			if e.removed[y][i] || !conflicts(e.vars[x], v, e.vars[y], w) {
				continue
			}
			e.removed[y][i] = true
			e.size[y]--
			log = append(log, prunedValue{variable: y, position: i})
		}
		if e.size[y] == 0 {
			return log, false
		}
	}
	return log, true
}

// restore reinstates every value in the log. Values return to their original
// positions because domains are masks over the static candidate list.
func (e *engine) restore(log undoLog) {
	for i := len(log) - 1; i >= 0; i-- {
		p := log[i]
		e.removed[p.variable][p.position] = false
		e.size[p.variable]++
	}
}
