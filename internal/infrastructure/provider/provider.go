// Package provider builds content trees from a JSON snapshot or a directory.
package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/content"
)

// ══════════════════════════════════════════════════════════════════════════════
// SNAPSHOT
// ══════════════════════════════════════════════════════════════════════════════

// Snapshot reads a tree exported as
// [{"name","type":"directory"|"video","path","children"}].
type Snapshot struct{}

var _ content.Provider = Snapshot{}

// LoadTree implements content.Provider. root is the snapshot file.
func (Snapshot) LoadTree(ctx context.Context, root string) ([]content.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(root)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return content.DecodeTree(data)
}

// ══════════════════════════════════════════════════════════════════════════════
// DIRECTORY
// ══════════════════════════════════════════════════════════════════════════════

// DefaultVideoExtensions are the file types listed as lessons.
var DefaultVideoExtensions = []string{".mp4", ".webm", ".mkv", ".mov", ".m4v", ".ogg"}

// Directory enumerates a library folder. Sub-folders become folders, video
// files become lessons and everything else is ignored. Entries are sorted by
// name so lesson order follows the usual "01 - ..." numbering.
type Directory struct {
	Extensions []string
}

var _ content.Provider = Directory{}

// LoadTree implements content.Provider. root is the library folder.
func (d Directory) LoadTree(ctx context.Context, root string) ([]content.Node, error) {
	exts := d.Extensions
	if len(exts) == 0 {
		exts = DefaultVideoExtensions
	}
	return d.walk(ctx, root, exts)
}

func (d Directory) walk(ctx context.Context, dir string, exts []string) ([]content.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	nodes := make([]content.Node, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		path := filepath.Join(dir, name)

		if e.IsDir() {
			children, err := d.walk(ctx, path, exts)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, content.Folder{Name: name, Path: path, Children: children})
			continue
		}
		if hasExt(name, exts) {
			nodes = append(nodes, content.Lesson{Name: name, Path: path})
		}
	}
	return nodes, nil
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTO
// ══════════════════════════════════════════════════════════════════════════════

// Auto picks Snapshot for ".json" roots and Directory otherwise.
type Auto struct {
	Directory Directory
}

var _ content.Provider = Auto{}

// LoadTree implements content.Provider.
func (a Auto) LoadTree(ctx context.Context, root string) ([]content.Node, error) {
	if strings.EqualFold(filepath.Ext(root), ".json") {
		return Snapshot{}.LoadTree(ctx, root)
	}
	return a.Directory.LoadTree(ctx, root)
}
