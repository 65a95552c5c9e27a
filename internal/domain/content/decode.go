package content

import (
	"encoding/json"
	"fmt"
	"strings"
)

// rawNode is the snapshot wire shape:
// {"name": "...", "type": "directory"|"video", "path": "...", "children": [...]}.
type rawNode struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	Path     string    `json:"path"`
	Children []rawNode `json:"children,omitempty"`
}

// DecodeTree parses a library snapshot. Nodes of an unknown type are skipped
// together with their subtree; only syntactically invalid JSON is an error.
func DecodeTree(data []byte) ([]Node, error) {
	var raw []rawNode
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode content tree: %w", err)
	}
	return convert(raw), nil
}

// EncodeTree renders nodes in the snapshot wire shape.
func EncodeTree(nodes []Node) ([]byte, error) {
	return json.Marshal(toRaw(nodes))
}

func convert(raw []rawNode) []Node {
	out := make([]Node, 0, len(raw))
	for _, r := range raw {
		switch kindOf(r.Type) {
		case KindFolder:
			out = append(out, Folder{Name: r.Name, Path: r.Path, Children: convert(r.Children)})
		case KindLesson:
			out = append(out, Lesson{Name: r.Name, Path: r.Path})
		}
	}
	return out
}

func toRaw(nodes []Node) []rawNode {
	out := make([]rawNode, 0, len(nodes))
	for _, n := range nodes {
		if f, ok := asFolder(n); ok {
			out = append(out, rawNode{Name: f.Name, Type: "directory", Path: f.Path, Children: toRaw(f.Children)})
			continue
		}
		if l, ok := asLesson(n); ok {
			out = append(out, rawNode{Name: l.Name, Type: "video", Path: l.Path})
		}
	}
	return out
}

func kindOf(t string) Kind {
	switch strings.ToLower(t) {
	case "directory", "folder", "module", "course":
		return KindFolder
	case "video", "lesson":
		return KindLesson
	default:
		return ""
	}
}
