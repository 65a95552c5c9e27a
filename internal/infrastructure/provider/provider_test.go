package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/content"
)

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"name":"go","type":"directory","path":"/lib/go","children":[
			{"name":"01 intro.mp4","type":"video","path":"/lib/go/01 intro.mp4"},
			{"name":"cover.png","type":"image","path":"/lib/go/cover.png"}
		]}
	]`), 0o644))

	nodes, err := Snapshot{}.LoadTree(context.Background(), path)
	require.NoError(t, err)

	lessons := content.Flatten(nodes)
	require.Len(t, lessons, 1)
	assert.Equal(t, "/lib/go/01 intro.mp4", lessons[0].Path)
}

func TestSnapshot_InvalidYieldsEmptyTree(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o644))

	nodes, err := content.LoadOrEmpty(context.Background(), Snapshot{}, path)
	assert.Error(t, err)
	assert.NotNil(t, nodes)
	assert.Empty(t, nodes)

	nodes, err = content.LoadOrEmpty(context.Background(), Snapshot{}, filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
	assert.Empty(t, nodes)
}

func TestDirectory(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "go", "02 types.mkv"))
	touch(t, filepath.Join(root, "go", "01 intro.MP4"))
	touch(t, filepath.Join(root, "go", "notes.txt"))
	touch(t, filepath.Join(root, "go", "m1", "03 generics.mp4"))
	touch(t, filepath.Join(root, "go", ".hidden.mp4"))
	touch(t, filepath.Join(root, "rust", "01.webm"))

	nodes, err := Directory{}.LoadTree(context.Background(), root)
	require.NoError(t, err)

	courses := content.Courses(nodes)
	require.Len(t, courses, 2)
	assert.Equal(t, "go", courses[0].Name)

	var names []string
	for _, l := range courses[0].Lessons() {
		names = append(names, l.Name)
	}
	assert.Equal(t, []string{"01 intro.MP4", "02 types.mkv", "03 generics.mp4"}, names)
}

func TestDirectory_CustomExtensions(t *testing.T) {
	root := t.TempDir()
	touch(t, filepath.Join(root, "a.avi"))
	touch(t, filepath.Join(root, "b.mp4"))

	nodes, err := Directory{Extensions: []string{".avi"}}.LoadTree(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "a.avi", nodes[0].NodeName())
}

func TestAuto(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "c", "x.mp4"))
	snap := filepath.Join(t.TempDir(), "tree.JSON")
	require.NoError(t, os.WriteFile(snap, []byte(`[{"name":"s","type":"directory","path":"/s","children":[]}]`), 0o644))

	nodes, err := Auto{}.LoadTree(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, "s", nodes[0].NodeName())

	nodes, err = Auto{}.LoadTree(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "c", nodes[0].NodeName())
}
