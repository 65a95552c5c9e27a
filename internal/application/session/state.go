package session

import (
	"context"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/progress"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/shared"
)

// State is the persisted form of everything the engine owns. On commit only
// the fields named by the ChangeSet are populated.
type State struct {
	Progress     map[string]progress.LessonRecord
	History      map[string]int
	Achievements []string
	Tags         map[string][]string
	LastWatched  map[string]string
}

// Persister is the commit boundary between the engine and storage.
type Persister interface {
	// Load returns the last committed state. Missing keys come back empty.
	Load(ctx context.Context) (State, error)

	// Commit stores the keys named by changes from st. Implementations may
	// defer the actual write until Flush.
	Commit(ctx context.Context, st State, changes shared.ChangeSet) error

	// Flush writes any deferred changes.
	Flush(ctx context.Context) error
}

// NopPersister keeps everything in memory.
type NopPersister struct{}

// Load implements Persister.
func (NopPersister) Load(context.Context) (State, error) { return State{}, nil }

// Commit implements Persister.
func (NopPersister) Commit(context.Context, State, shared.ChangeSet) error { return nil }

// Flush implements Persister.
func (NopPersister) Flush(context.Context) error { return nil }
