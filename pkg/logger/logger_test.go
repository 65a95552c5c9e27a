package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, LevelError, ParseLevel("ERROR"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestLogger_JSONOutputCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo, Format: FormatJSON})

	log.With(Component("engine")).Info("lesson completed",
		LessonPath("/courses/go/01.mp4"),
		Streak(3),
		Err(errors.New("boom")),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "lesson completed", entry["message"])
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "engine", entry["component"])
	assert.Equal(t, "/courses/go/01.mp4", entry["lesson_path"])
	assert.EqualValues(t, 3, entry["streak"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelWarn})

	log.Info("hidden")
	log.Debug("hidden too")
	log.Warn("shown")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 1)
	assert.Contains(t, lines[0], "shown")
}

func TestFromContext(t *testing.T) {
	log := Nop()
	ctx := WithContext(context.Background(), log)
	assert.Same(t, log, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}
