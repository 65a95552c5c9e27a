package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/application/session"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/progress"
	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/shared"
	"github.com/OwlWorksInnovations/lumina-local-video-player/pkg/logger"
	"github.com/OwlWorksInnovations/lumina-local-video-player/pkg/retry"
)

// Options configure a Committer.
type Options struct {
	// Namespace prefixes keys; defaults to DefaultNamespace.
	Namespace string

	// Profile separates learners sharing one store.
	Profile string

	// Policy selects immediate or deferred writes.
	Policy WritePolicy

	// RetryAttempts bounds store calls; 1 disables retries.
	RetryAttempts int

	// Logger receives warnings about corrupt values and failed writes.
	Logger *logger.Logger
}

var _ session.Persister = (*Committer)(nil)

// Committer implements session.Persister on top of a Store.
type Committer struct {
	store   Store
	opts    Options
	log     *logger.Logger
	retrier *retry.Retrier

	mu      sync.Mutex
	pending map[shared.StateKey][]byte
}

// NewCommitter creates a Committer writing to store.
func NewCommitter(store Store, opts Options) *Committer {
	if opts.Namespace == "" {
		opts.Namespace = DefaultNamespace
	}
	if opts.Profile == "" {
		opts.Profile = session.DefaultProfile
	}
	if !opts.Policy.IsValid() {
		opts.Policy = PolicyImmediate
	}
	if opts.RetryAttempts < 1 {
		opts.RetryAttempts = 1
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}

	log := opts.Logger.With(logger.Component("state"), logger.String("profile", opts.Profile))
	return &Committer{
		store: store,
		opts:  opts,
		log:   log,
		retrier: retry.StoreRetrier(opts.RetryAttempts, retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			log.Warn("retrying store call", logger.Int("attempt", attempt), logger.Duration("delay", delay), logger.Err(err))
		})),
		pending: make(map[shared.StateKey][]byte),
	}
}

// Key returns the store key of k.
func (c *Committer) Key(k shared.StateKey) string {
	return fmt.Sprintf("%s:%s:%s", c.opts.Namespace, c.opts.Profile, k)
}

// Policy returns the write policy in effect.
func (c *Committer) Policy() WritePolicy {
	return c.opts.Policy
}

// Pending returns the keys waiting for Flush, sorted.
func (c *Committer) Pending() []shared.StateKey {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]shared.StateKey, 0, len(c.pending))
	for k := range c.pending {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Load reads every state key. Missing keys come back empty; a corrupt value
// is logged and treated as missing. Pending deferred writes win over the store.
func (c *Committer) Load(ctx context.Context) (session.State, error) {
	var st session.State
	for _, k := range shared.AllStateKeys() {
		raw, err := c.read(ctx, k)
		if errors.Is(err, ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return session.State{}, fmt.Errorf("load %s: %w", k, err)
		}
		if err := decodeInto(&st, k, raw); err != nil {
			c.log.Warn("ignoring corrupt state value", logger.StateKey(k.String()), logger.Err(err))
		}
	}
	return st, nil
}

func (c *Committer) read(ctx context.Context, k shared.StateKey) ([]byte, error) {
	c.mu.Lock()
	raw, ok := c.pending[k]
	c.mu.Unlock()
	if ok {
		return raw, nil
	}

	err := c.retrier.Do(ctx, func(ctx context.Context) error {
		var err error
		raw, err = c.store.Get(ctx, c.Key(k))
		if errors.Is(err, ErrKeyNotFound) {
			return retry.Permanent(err)
		}
		return err
	})
	return raw, err
}

// Commit encodes the keys named by changes. Under PolicyImmediate they are
// written before returning; under PolicyDeferred they wait for Flush.
func (c *Committer) Commit(ctx context.Context, st session.State, changes shared.ChangeSet) error {
	encoded := make(map[shared.StateKey][]byte, len(changes.Keys()))
	for _, k := range changes.Keys() {
		raw, err := encode(st, k)
		if err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
		encoded[k] = raw
	}

	if c.opts.Policy == PolicyDeferred {
		c.mu.Lock()
		for k, raw := range encoded {
			c.pending[k] = raw
		}
		c.mu.Unlock()
		return nil
	}

	_, err := c.write(ctx, encoded)
	return err
}

// Flush writes every pending key. Keys that fail stay pending.
func (c *Committer) Flush(ctx context.Context) error {
	c.mu.Lock()
	batch := make(map[shared.StateKey][]byte, len(c.pending))
	for k, raw := range c.pending {
		batch[k] = raw
	}
	c.mu.Unlock()

	if len(batch) == 0 {
		return nil
	}

	failed, err := c.write(ctx, batch)

	c.mu.Lock()
	for k, raw := range batch {
		// A newer commit may have replaced the value while writing.
		if cur, ok := c.pending[k]; ok && string(cur) == string(raw) && !failed[k] {
			delete(c.pending, k)
		}
	}
	c.mu.Unlock()

	if err == nil {
		c.log.Debug("state flushed", logger.Int("keys", len(batch)))
	}
	return err
}

// write puts every key of batch and returns the keys that failed.
func (c *Committer) write(ctx context.Context, batch map[shared.StateKey][]byte) (map[shared.StateKey]bool, error) {
	keys := make([]shared.StateKey, 0, len(batch))
	for k := range batch {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var (
		errs   []error
		failed map[shared.StateKey]bool
	)
	for _, k := range keys {
		raw := batch[k]
		err := c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.store.Put(ctx, c.Key(k), raw)
		})
		if err != nil {
			c.log.Error("failed to write state", logger.StateKey(k.String()), logger.Err(err))
			errs = append(errs, fmt.Errorf("write %s: %w", k, err))
			if failed == nil {
				failed = make(map[shared.StateKey]bool)
			}
			failed[k] = true
		}
	}
	return failed, errors.Join(errs...)
}

// Import writes a full state immediately, bypassing the write policy.
func (c *Committer) Import(ctx context.Context, st session.State) error {
	batch := make(map[shared.StateKey][]byte)
	for _, k := range shared.AllStateKeys() {
		raw, err := encode(st, k)
		if err != nil {
			return fmt.Errorf("encode %s: %w", k, err)
		}
		batch[k] = raw
	}
	_, err := c.write(ctx, batch)
	return err
}

// Reset deletes every state key of the profile.
func (c *Committer) Reset(ctx context.Context) error {
	c.mu.Lock()
	c.pending = make(map[shared.StateKey][]byte)
	c.mu.Unlock()

	for _, k := range shared.AllStateKeys() {
		if err := c.store.Delete(ctx, c.Key(k)); err != nil {
			return fmt.Errorf("delete %s: %w", k, err)
		}
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// WIRE LAYOUT
// ══════════════════════════════════════════════════════════════════════════════

func encode(st session.State, k shared.StateKey) ([]byte, error) {
	switch k {
	case shared.KeyCourseProgress:
		if st.Progress == nil {
			return json.Marshal(map[string]progress.LessonRecord{})
		}
		return json.Marshal(st.Progress)
	case shared.KeyWatchHistory:
		if st.History == nil {
			return json.Marshal(map[string]int{})
		}
		return json.Marshal(st.History)
	case shared.KeyAchievements:
		if st.Achievements == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(st.Achievements)
	case shared.KeyCourseTags:
		if st.Tags == nil {
			return json.Marshal(map[string][]string{})
		}
		return json.Marshal(st.Tags)
	case shared.KeyLastWatched:
		if st.LastWatched == nil {
			return json.Marshal(map[string]string{})
		}
		return json.Marshal(st.LastWatched)
	}
	return nil, fmt.Errorf("unknown state key %q", k)
}

func decodeInto(st *session.State, k shared.StateKey, raw []byte) error {
	switch k {
	case shared.KeyCourseProgress:
		var v map[string]progress.LessonRecord
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		st.Progress = v
	case shared.KeyWatchHistory:
		var v map[string]int
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		st.History = v
	case shared.KeyAchievements:
		var v []string
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		st.Achievements = v
	case shared.KeyCourseTags:
		var v map[string][]string
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		st.Tags = v
	case shared.KeyLastWatched:
		var v map[string]string
		if err := json.Unmarshal(raw, &v); err != nil {
			return err
		}
		st.LastWatched = v
	default:
		return fmt.Errorf("unknown state key %q", k)
	}
	return nil
}
