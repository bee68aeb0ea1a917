package solver

import "sort"

// selectVariable picks the unassigned variable with the fewest remaining
// values, preferring the one whose teacher leads the most other groups.
// Remaining ties go to the lowest (group id, occurrence). Returns -1 when
// everything is assigned.
func (e *engine) selectVariable() int {
	best := -1
	for i := range e.vars {
		if e.assigned[i] {
			continue
		}
		if best < 0 {
			best = i
			continue
		}
		if e.size[i] < e.size[best] {
			best = i
			continue
		}
		if e.size[i] == e.size[best] && e.vars[i].degree > e.vars[best].degree {
			best = i
		}
	}
	return best
}

type rankedValue struct {
	value    Value
	cost     int
	position int
}

// orderValues returns the current domain of x, least constraining first.
// Equal costs keep the canonical order: earlier timeslot, then lower room id.
func (e *engine) orderValues(x int) []Value {
	ranked := make([]rankedValue, 0, e.size[x])
	for i, v := range e.base[x] {
		if e.removed[x][i] {
			continue
		}
		ranked = append(ranked, rankedValue{value: v, cost: e.constrainingCost(x, v), position: i})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].cost != ranked[j].cost {
			return ranked[i].cost < ranked[j].cost
		}
		ti, tj := e.timeslotRank[ranked[i].value.TimeslotID], e.timeslotRank[ranked[j].value.TimeslotID]
		if ti != tj {
			return ti < tj
		}
		return ranked[i].position < ranked[j].position
	})
	out := make([]Value, len(ranked))
	for i, r := range ranked {
		out[i] = r.value
	}
	return out
}

// constrainingCost counts the values that assigning v to x would strike from
// the current domains of the other unassigned variables.
func (e *engine) constrainingCost(x int, v Value) int {
	cost := 0
	for y := range e.vars {
		if y == x || e.assigned[y] {
			continue
		}
		for i, w := range e.base[y] {
			if !e.removed[y][i] && conflicts(e.vars[x], v, e.vars[y], w) {
				cost++
			}
		}
	}
	return cost
}
