// Package library holds per-course metadata the learner curates around the
// content tree: free-form tags and the lesson watched most recently.
package library

import (
	"sort"
	"strings"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/content"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/shared"
)

// Tags maps a course name to its tags in insertion order.
// Tags is not safe for concurrent use.
type Tags struct {
	byCourse map[string][]string
}

// NewTags creates an empty tag index.
func NewTags() *Tags {
	return &Tags{byCourse: make(map[string][]string)}
}

// TagsFrom rebuilds a tag index from persisted data, dropping duplicates.
func TagsFrom(m map[string][]string) *Tags {
	t := NewTags()
	for course, tags := range m {
		for _, tag := range tags {
			_, _ = t.Add(course, tag)
		}
	}
	return t
}

// Add attaches tag to course. Tags are trimmed; adding an existing tag is a
// no-op. It reports whether the index changed.
func (t *Tags) Add(course, tag string) (bool, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false, shared.ErrEmptyTag
	}
	for _, existing := range t.byCourse[course] {
		if existing == tag {
			return false, nil
		}
	}
	t.byCourse[course] = append(t.byCourse[course], tag)
	return true, nil
}

// Remove detaches tag from course and reports whether it was present.
func (t *Tags) Remove(course, tag string) bool {
	tags := t.byCourse[course]
	for i, existing := range tags {
		if existing == tag {
			t.byCourse[course] = append(tags[:i:i], tags[i+1:]...)
			if len(t.byCourse[course]) == 0 {
				delete(t.byCourse, course)
			}
			return true
		}
	}
	return false
}

// Of returns the tags of course.
func (t *Tags) Of(course string) []string {
	tags := t.byCourse[course]
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

// Matches reports whether the course name or one of its tags contains query,
// case-insensitively. An empty query matches everything.
func (t *Tags) Matches(course, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(course), q) {
		return true
	}
	for _, tag := range t.byCourse[course] {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Snapshot returns a copy of the index.
func (t *Tags) Snapshot() map[string][]string {
	out := make(map[string][]string, len(t.byCourse))
	for course := range t.byCourse {
		out[course] = t.Of(course)
	}
	return out
}

// LastWatched remembers the most recently played lesson of each course.
type LastWatched struct {
	byCourse map[string]string
}

// NewLastWatched creates an empty index.
func NewLastWatched() *LastWatched {
	return &LastWatched{byCourse: make(map[string]string)}
}

// LastWatchedFrom rebuilds the index from persisted data.
func LastWatchedFrom(m map[string]string) *LastWatched {
	lw := NewLastWatched()
	for course, path := range m {
		if course != "" && path != "" {
			lw.byCourse[course] = path
		}
	}
	return lw
}

// Set records path as the last lesson of course and reports whether it changed.
func (lw *LastWatched) Set(course, path string) bool {
	if course == "" || path == "" || lw.byCourse[course] == path {
		return false
	}
	lw.byCourse[course] = path
	return true
}

// Get returns the last lesson of course.
func (lw *LastWatched) Get(course string) (string, bool) {
	p, ok := lw.byCourse[course]
	return p, ok
}

// Snapshot returns a copy of the index.
func (lw *LastWatched) Snapshot() map[string]string {
	out := make(map[string]string, len(lw.byCourse))
	for k, v := range lw.byCourse {
		out[k] = v
	}
	return out
}

// Filter returns the courses matching query by name or tag, in tree order.
func Filter(courses []content.Folder, tags *Tags, query string) []content.Folder {
	out := make([]content.Folder, 0, len(courses))
	for _, c := range courses {
		if tags == nil || tags.Matches(c.Name, query) {
			out = append(out, c)
		}
	}
	return out
}

// ResumeTarget picks the lesson to open when a course is entered: the last
// watched lesson if it still exists, else the first lesson.
func ResumeTarget(lessons []content.Lesson, lw *LastWatched, course string) (content.Lesson, bool) {
	if len(lessons) == 0 {
		return content.Lesson{}, false
	}
	if lw != nil {
		if p, ok := lw.Get(course); ok {
			if i := content.IndexOf(lessons, p); i >= 0 {
				return lessons[i], true
			}
		}
	}
	return lessons[0], true
}

// Courses returns the tagged course names in sorted order.
func (t *Tags) Courses() []string {
	out := make([]string, 0, len(t.byCourse))
	for c := range t.byCourse {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
