package solver

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// Reduction records one relaxation step.
type Reduction struct {
	GroupID int64 `json:"group_id"`
	From    int   `json:"from"`
	To      int   `json:"to"`
}

// Stats summarises the work a solve performed.
type Stats struct {
	Iterations int           `json:"iterations"`
	Reductions []Reduction   `json:"reductions"`
	Nodes      int           `json:"nodes"`
	Backtracks int           `json:"backtracks"`
	Duration   time.Duration `json:"duration"`
}

// Result is a successful solve.
type Result struct {
	Assignment Assignment
	// Entries are ordered by timeslot (canonical order), then room id, then group id.
	Entries []models.ScheduleEntry
	Report  Report
	Stats   Stats
}

// Solver runs the frequency relaxation loop around the backtracking engine.
// It holds no state between calls.
type Solver struct {
	logger *zap.Logger
}

// New constructs a solver.
func New(logger *zap.Logger) *Solver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Solver{logger: logger}
}

// Solve schedules the snapshot. It returns *StructuralInfeasibilityError when
// some group fits no room, ErrTotalInfeasibility when relaxation removed every
// meeting, and an ErrInvalidSnapshot wrap for malformed input. The call blocks
// until the search finishes; there is no cancellation.
func (s *Solver) Solve(snap Snapshot) (*Result, error) {
	start := time.Now()
	idx, err := newIndex(snap)
	if err != nil {
		return nil, err
	}
	if diags := diagnose(idx); len(diags) > 0 {
		s.logger.Warn("solver: structural infeasibility", zap.Int("groups", len(diags)))
		return nil, &StructuralInfeasibilityError{Groups: diags}
	}

	targets := make([]int, len(idx.groups))
	for gi, group := range idx.groups {
		targets[gi] = group.FrequencyCount
	}

	var stats Stats
	for {
		stats.Iterations++
		if exceedsCapacity(idx, targets) {
			s.logger.Debug("solver: targets exceed weekly capacity", zap.Int("iteration", stats.Iterations))
		} else {
			eng := newEngine(idx, targets)
			solved := eng.search()
			stats.Nodes += eng.nodes
			stats.Backtracks += eng.backtracks
			s.logger.Debug("solver: iteration finished",
				zap.Int("iteration", stats.Iterations),
				zap.Int("variables", len(eng.vars)),
				zap.Int("nodes", eng.nodes),
				zap.Bool("solved", solved),
			)
			if solved {
				stats.Duration = time.Since(start)
				return s.result(idx, eng, stats), nil
			}
		}

		gi := pickReduction(targets)
		targets[gi]--
		stats.Reductions = append(stats.Reductions, Reduction{
			GroupID: idx.groups[gi].ID,
			From:    targets[gi] + 1,
			To:      targets[gi],
		})
		s.logger.Info("solver: relaxing frequency",
			zap.Int64("group_id", idx.groups[gi].ID),
			zap.Int("target", targets[gi]),
		)
		// Unreachable after a passed diagnose: a single meeting always fits its
		// non-empty domain. Kept so the loop terminates on any input.
		if sum(targets) == 0 {
			s.logger.Warn("solver: every target reached zero", zap.Int("iterations", stats.Iterations))
			return nil, ErrTotalInfeasibility
		}
	}
}

// pickReduction returns the group with the highest target; ties go to the
// lowest group id because groups are sorted by id. Only called after a
// failed search, which implies some target is positive.
func pickReduction(targets []int) int {
	best := 0
	for gi := range targets {
		if targets[gi] > targets[best] {
			best = gi
		}
	}
	return best
}

func sum(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}

func (s *Solver) result(idx *index, eng *engine, stats Stats) *Result {
	assignment := eng.assignment()
	achieved := make([]int, len(idx.groups))
	entries := make([]models.ScheduleEntry, 0, len(assignment))
	for i, v := range eng.vars {
		achieved[v.group]++
		val := eng.values[i]
		entries = append(entries, models.ScheduleEntry{
			GroupID:    v.key.GroupID,
			RoomID:     val.RoomID,
			TimeslotID: val.TimeslotID,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := idx.timeslotRank[entries[i].TimeslotID], idx.timeslotRank[entries[j].TimeslotID]
		if ti != tj {
			return ti < tj
		}
		ri, rj := idx.roomRank[entries[i].RoomID], idx.roomRank[entries[j].RoomID]
		if ri != rj {
			return ri < rj
		}
		return entries[i].GroupID < entries[j].GroupID
	})
	report := buildReport(idx, achieved)
	s.logger.Info("solver: schedule found",
		zap.Int("meetings", len(entries)),
		zap.Int("iterations", stats.Iterations),
		zap.Int("reductions", len(stats.Reductions)),
		zap.Duration("duration", stats.Duration),
	)
	return &Result{Assignment: assignment, Entries: entries, Report: report, Stats: stats}
}
