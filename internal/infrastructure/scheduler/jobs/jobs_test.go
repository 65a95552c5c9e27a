package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/application/session"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/achievement"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/content"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/infrastructure/scheduler"
)

type flushFunc func(ctx context.Context) error

func (f flushFunc) Flush(ctx context.Context) error { return f(ctx) }

func TestFlushJob_AppliesTimeout(t *testing.T) {
	var deadline bool
	job := NewFlushJob(flushFunc(func(ctx context.Context) error {
		_, deadline = ctx.Deadline()
		return nil
	}), time.Second)

	require.NoError(t, job.Run(context.Background()))
	assert.True(t, deadline)
}

type streakStub struct {
	streak int
	err    error
}

func (s streakStub) Streak(context.Context) (int, []achievement.Unlock, error) {
	return s.streak, nil, s.err
}

func TestStreakJob(t *testing.T) {
	require.NoError(t, NewStreakJob(streakStub{streak: 3}, nil).Run(context.Background()))

	err := NewStreakJob(streakStub{err: errors.New("store down")}, nil).Run(context.Background())
	assert.EqualError(t, err, "store down")
}

type treeProvider struct {
	nodes []content.Node
	err   error
}

func (p treeProvider) LoadTree(context.Context, string) ([]content.Node, error) {
	return p.nodes, p.err
}

func TestLibraryJob_WithSession(t *testing.T) {
	s := session.New(session.Config{Profile: "p", Location: time.UTC}, session.Deps{})
	course := content.Folder{Name: "go", Path: "/lib/go", Children: []content.Node{
		content.Lesson{Name: "01.mp4", Path: "/lib/go/01.mp4"},
	}}

	require.NoError(t, NewLibraryJob(s, treeProvider{nodes: []content.Node{course}}, "/lib").Run(context.Background()))
	require.Len(t, s.Courses(), 1)

	err := NewLibraryJob(s, treeProvider{err: errors.New("unmounted")}, "/lib").Run(context.Background())
	assert.Error(t, err)
	assert.Len(t, s.Courses(), 1)
}

func TestJobsRegisterWithScheduler(t *testing.T) {
	s := session.New(session.Config{Profile: "p", Location: time.UTC}, session.Deps{})
	sch := scheduler.New(scheduler.Config{Location: time.UTC})

	require.NoError(t, sch.Register(NewFlushJob(s, 0), DefaultFlushSpec))
	require.NoError(t, sch.Register(NewStreakJob(s, nil), DefaultStreakSpec))
	require.NoError(t, sch.Register(NewLibraryJob(s, treeProvider{}, "/lib"), DefaultLibrarySpec))

	res, err := sch.RunNow(context.Background(), "recompute_streak")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Len(t, sch.ListJobs(), 3)
}
