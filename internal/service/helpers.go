package service

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/fallow/internal/domain"
)

func formatValidationErrors(errs []error) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%d errors:", len(errs))
	for _, e := range errs {
		b.WriteString("\n  - " + e.Error())
	}
	return domain.NewValidationError("catalog", "%s", b.String())
}

// planCropIDs returns the distinct crop IDs a plan references, in first-seen
// order, followed by any extra IDs not already present.
func planCropIDs(plan *domain.Plan, extra ...string) []string {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, e := range plan.Entries {
		add(e.CropID)
	}
	for _, id := range extra {
		add(id)
	}
	return ids
}

func relaxedCount(plan *domain.Plan) int {
	n := 0
	for _, e := range plan.Entries {
		if e.Relaxed {
			n++
		}
	}
	return n
}
