// Package content models the lesson library as a tree of folders and lessons
// and flattens it into the ordered sequence the player walks through.
//
// The tree is produced once per session by a Provider and is never mutated
// by the engine. Lesson paths are unique across the tree and stable across
// sessions; every piece of derived state is keyed by them.
package content

// Kind discriminates the two node variants.
type Kind string

const (
	// KindFolder is a course or module containing further nodes.
	KindFolder Kind = "folder"
	// KindLesson is a single playable video.
	KindLesson Kind = "lesson"
)

// Node is either a Folder or a Lesson.
type Node interface {
	Kind() Kind
	NodeName() string
	NodePath() string
}

// Folder groups lessons and nested folders in their original order.
type Folder struct {
	Name     string
	Path     string
	Children []Node
}

// Kind implements Node.
func (Folder) Kind() Kind { return KindFolder }

// NodeName implements Node.
func (f Folder) NodeName() string { return f.Name }

// NodePath implements Node.
func (f Folder) NodePath() string { return f.Path }

// Lessons returns the folder's lessons in playback order.
func (f Folder) Lessons() []Lesson {
	return Flatten(f.Children)
}

// Lesson is a leaf: one playable video.
type Lesson struct {
	Name string
	Path string
}

// Kind implements Node.
func (Lesson) Kind() Kind { return KindLesson }

// NodeName implements Node.
func (l Lesson) NodeName() string { return l.Name }

// NodePath implements Node.
func (l Lesson) NodePath() string { return l.Path }

// Title returns the display title of the lesson.
func (l Lesson) Title() string {
	return FormatTitle(l.Name)
}

// Courses returns the top-level folders of a library tree. Loose lessons at
// the root do not belong to any course and are ignored.
func Courses(nodes []Node) []Folder {
	out := make([]Folder, 0, len(nodes))
	for _, n := range nodes {
		if f, ok := asFolder(n); ok {
			out = append(out, f)
		}
	}
	return out
}

// FindCourse looks up a top-level folder by name or path.
func FindCourse(nodes []Node, nameOrPath string) (Folder, bool) {
	for _, c := range Courses(nodes) {
		if c.Name == nameOrPath || c.Path == nameOrPath {
			return c, true
		}
	}
	return Folder{}, false
}

// CourseOf returns the course that contains the lesson at path.
func CourseOf(nodes []Node, path string) (Folder, bool) {
	for _, c := range Courses(nodes) {
		for _, l := range c.Lessons() {
			if l.Path == path {
				return c, true
			}
		}
	}
	return Folder{}, false
}

func asFolder(n Node) (Folder, bool) {
	switch v := n.(type) {
	case Folder:
		return v, true
	case *Folder:
		if v != nil {
			return *v, true
		}
	}
	return Folder{}, false
}

func asLesson(n Node) (Lesson, bool) {
	switch v := n.(type) {
	case Lesson:
		return v, true
	case *Lesson:
		if v != nil {
			return *v, true
		}
	}
	return Lesson{}, false
}
