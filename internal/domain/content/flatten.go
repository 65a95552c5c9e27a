package content

// Flatten returns the lessons under nodes in depth-first order, children
// before later siblings. Folders contribute no entry of their own; their
// descendants take the folder's place in the sequence.
//
// Flatten(append(a, b...)) == append(Flatten(a), Flatten(b)...).
func Flatten(nodes []Node) []Lesson {
	out := make([]Lesson, 0, len(nodes))

	// Explicit stack of pending sibling lists so deep nesting does not grow
	// the goroutine stack.
	type frame struct {
		nodes []Node
		next  int
	}
	stack := []frame{{nodes: nodes}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.nodes) {
			stack = stack[:len(stack)-1]
			continue
		}
		n := top.nodes[top.next]
		top.next++

		if l, ok := asLesson(n); ok {
			out = append(out, l)
			continue
		}
		if f, ok := asFolder(n); ok && len(f.Children) > 0 {
			stack = append(stack, frame{nodes: f.Children})
		}
	}

	return out
}

// IndexOf returns the position of path in lessons, or -1.
func IndexOf(lessons []Lesson, path string) int {
	for i, l := range lessons {
		if l.Path == path {
			return i
		}
	}
	return -1
}

// Next returns the lesson following path, used for auto-advance.
func Next(lessons []Lesson, path string) (Lesson, bool) {
	i := IndexOf(lessons, path)
	if i < 0 || i+1 >= len(lessons) {
		return Lesson{}, false
	}
	return lessons[i+1], true
}
