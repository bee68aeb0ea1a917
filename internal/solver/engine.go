package solver

// engine holds the search state of one relaxation iteration. Nothing in it
// survives the iteration.
type engine struct {
	vars []variable
	// base is the static candidate list per variable; occurrences of a group share it.
	base [][]Value
	// removed masks base entries pruned by forward checking; size counts the rest.
	removed [][]bool
	size    []int

	assigned  []bool
	values    []Value
	remaining int

	timeslotRank map[int64]int

	nodes      int
	backtracks int
}

func newEngine(idx *index, targets []int) *engine {
	vars := expand(idx, targets)
	e := &engine{
		vars:         vars,
		base:         make([][]Value, len(vars)),
		removed:      make([][]bool, len(vars)),
		size:         make([]int, len(vars)),
		assigned:     make([]bool, len(vars)),
		values:       make([]Value, len(vars)),
		remaining:    len(vars),
		timeslotRank: idx.timeslotRank,
	}
	domains := make(map[int][]Value)
	for i, v := range vars {
		domain, ok := domains[v.group]
		if !ok {
			domain = buildDomain(idx, idx.groups[v.group])
			domains[v.group] = domain
		}
		e.base[i] = domain
		e.removed[i] = make([]bool, len(domain))
		e.size[i] = len(domain)
	}
	return e
}

// frame is one level of the depth-first search.
type frame struct {
	variable   int
	candidates []Value
	next       int
	// active is set while variable holds candidates[next-1]; log undoes its pruning.
	active bool
	log    undoLog
}

func (e *engine) push(stack []frame) []frame {
	x := e.selectVariable()
	return append(stack, frame{variable: x, candidates: e.orderValues(x)})
}

// search runs depth-first backtracking on an explicit stack, so depth is
// bounded by the heap rather than the goroutine stack. On success the
// assignment stays in e.values.
func (e *engine) search() bool {
	if e.remaining == 0 {
		return true
	}
	stack := e.push(make([]frame, 0, len(e.vars)))
	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		if f.active {
			e.unassign(f.variable)
			e.restore(f.log)
			f.active, f.log = false, nil
		}
		if f.next >= len(f.candidates) {
			stack = stack[:len(stack)-1]
			e.backtracks++
			continue
		}
		v := f.candidates[f.next]
		f.next++
		if !e.isValid(f.variable, v) {
			continue
		}
		e.assign(f.variable, v)
		e.nodes++
		log, ok := e.forwardCheck(f.variable, v)
		f.active, f.log = true, log
		if !ok {
			continue
		}
		if e.remaining == 0 {
			return true
		}
		stack = e.push(stack)
	}
	return false
}

func (e *engine) assign(x int, v Value) {
	e.assigned[x] = true
	e.values[x] = v
	e.remaining--
}

func (e *engine) unassign(x int) {
	e.assigned[x] = false
	e.values[x] = Value{}
	e.remaining++
}

func (e *engine) assignment() Assignment {
	out := make(Assignment, len(e.vars))
	for i, v := range e.vars {
		if e.assigned[i] {
			out[v.key] = e.values[i]
		}
	}
	return out
}
