package progress

import (
	"fmt"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/shared"
)

// View is the derived completion summary of one course.
type View struct {
	Total          int
	CompletedCount int
	Percent        shared.Percent
}

// IsEmpty reports whether the course has no lessons.
func (v View) IsEmpty() bool {
	return v.Total == 0
}

// Remaining returns the number of lessons still to complete.
func (v View) Remaining() int {
	return v.Total - v.CompletedCount
}

// String renders the view as "3/10 (30%)".
func (v View) String() string {
	return fmt.Sprintf("%d/%d (%s)", v.CompletedCount, v.Total, v.Percent)
}
