package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/infrastructure/persistence/state"
)

func TestStore(t *testing.T) {
	ctx := context.Background()
	s := NewStore()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, state.ErrKeyNotFound)

	value := []byte(`{"a":1}`)
	require.NoError(t, s.Put(ctx, "k", value))
	value[0] = 'x'

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	require.NoError(t, s.Put(ctx, "k", []byte(`[]`)))
	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(got))
	assert.Equal(t, []string{"k"}, s.Keys())

	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.ErrorIs(t, err, state.ErrKeyNotFound)
}
