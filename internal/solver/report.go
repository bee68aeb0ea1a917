package solver

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// Status tags how a group fared against its configured frequency.
type Status string

const (
	StatusFullySatisfied Status = "fully_satisfied"
	StatusReduced        Status = "reduced"
	StatusUnscheduled    Status = "unscheduled"
)

func statusFor(achieved, target int) Status {
	switch {
	case achieved == 0:
		return StatusUnscheduled
	case achieved < target:
		return StatusReduced
	default:
		return StatusFullySatisfied
	}
}

// GroupReport compares achieved meetings with the configured target for one group.
type GroupReport struct {
	GroupID     int64  `json:"group_id"`
	SubjectName string `json:"subject_name"`
	TeacherName string `json:"teacher_name"`
	Achieved    int    `json:"achieved"`
	Target      int    `json:"target"`
	Status      Status `json:"status"`
}

// Line renders the report line for the group.
func (g GroupReport) Line() string {
	return fmt.Sprintf("Group %d (%s / %s): Assigned %d times (Target: %d) [%s]",
		g.GroupID, g.SubjectName, g.TeacherName, g.Achieved, g.Target, strings.ReplaceAll(string(g.Status), "_", " "))
}

// Report is the per-group outcome of a successful solve, ordered by group id.
type Report struct {
	Groups []GroupReport `json:"groups"`
}

func buildReport(idx *index, achieved []int) Report {
	groups := make([]GroupReport, len(idx.groups))
	for gi, group := range idx.groups {
		groups[gi] = GroupReport{
			GroupID:     group.ID,
			SubjectName: idx.subjects[group.SubjectID].Name,
			TeacherName: idx.teachers[group.TeacherID].Name,
			Achieved:    achieved[gi],
			Target:      group.FrequencyCount,
			Status:      statusFor(achieved[gi], group.FrequencyCount),
		}
	}
	return Report{Groups: groups}
}

// Counts tallies groups per status.
func (r Report) Counts() map[Status]int {
	return lo.CountValuesBy(r.Groups, func(g GroupReport) Status { return g.Status })
}

// Meetings returns the number of placed meetings.
func (r Report) Meetings() int {
	return lo.SumBy(r.Groups, func(g GroupReport) int { return g.Achieved })
}

// Degraded reports whether any group lost meetings to relaxation.
func (r Report) Degraded() bool {
	return lo.SomeBy(r.Groups, func(g GroupReport) bool { return g.Achieved < g.Target })
}

// Group looks up the line for one group.
func (r Report) Group(id int64) (GroupReport, bool) {
	return lo.Find(r.Groups, func(g GroupReport) bool { return g.GroupID == id })
}

// String renders the textual report.
func (r Report) String() string {
	var b strings.Builder
	b.WriteString("Schedule successfully generated.")
	for _, g := range r.Groups {
		b.WriteString("\n")
		b.WriteString(g.Line())
	}
	return b.String()
}
