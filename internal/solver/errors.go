package solver

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidSnapshot marks input that violates the entity model (dangling ids, bad ranges).
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	// ErrTotalInfeasibility is returned when relaxation reached zero meetings for every group.
	ErrTotalInfeasibility = errors.New("no feasible schedule at any meeting frequency")
)

// StructuralInfeasibilityError reports groups that no room can host at all.
type StructuralInfeasibilityError struct {
	Groups []GroupDiagnostic
}

// Error renders the same text the diagnostic report shows.
func (e *StructuralInfeasibilityError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Report()
}

// Report renders a multi-line diagnostic, one block per offending group.
func (e *StructuralInfeasibilityError) Report() string {
	var b strings.Builder
	b.WriteString("No feasible schedule found. Domain too narrow for some groups:")
	for _, g := range e.Groups {
		fmt.Fprintf(&b, "\n\nGroup %d has no valid assignment:", g.GroupID)
		for _, r := range g.Reasons {
			b.WriteString("\n  ")
			b.WriteString(r.Detail)
		}
	}
	return b.String()
}
