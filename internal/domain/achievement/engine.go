package achievement

import (
	"context"
	"errors"

	"github.com/OwlWorksInnovations/lumina-local-video-player/internal/domain/shared"
)

// Notifier receives unlock notifications. Delivery is fire-and-forget: a
// failed notification never revokes an unlock.
type Notifier interface {
	Notify(ctx context.Context, u Unlock) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, u Unlock) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, u Unlock) error {
	return f(ctx, u)
}

// Engine evaluates the rule table against a Set.
// An Engine is not safe for concurrent use.
type Engine struct {
	set      *Set
	notifier Notifier
	rules    []Definition
}

// NewEngine creates an engine over set. With no rules the built-in table is used.
func NewEngine(set *Set, notifier Notifier, rules ...Definition) *Engine {
	if set == nil {
		set = NewSet()
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Engine{set: set, notifier: notifier, rules: rules}
}

// Set returns the set the engine unlocks into.
func (e *Engine) Set() *Set {
	return e.set
}

// Rules returns the rule table in evaluation order.
func (e *Engine) Rules() []Definition {
	out := make([]Definition, len(e.rules))
	copy(out, e.rules)
	return out
}

// Evaluate runs every rule listening to trigger that has not unlocked yet.
// Newly unlocked ids are inserted into the set in table order and sent to the
// notifier. The returned error only reports notification failures; the
// unlocks stand regardless.
func (e *Engine) Evaluate(ctx context.Context, trigger Trigger, ec EvalContext) ([]Unlock, error) {
	var (
		unlocks   []Unlock
		notifyErr []error
	)

	for _, rule := range e.rules {
		if rule.Trigger != trigger || e.set.Has(rule.ID) {
			continue
		}
		if rule.Predicate != nil && !rule.Predicate(ec) {
			continue
		}
		if !e.set.Add(rule.ID) {
			continue
		}

		u := NewUnlock(rule, ec.At)
		unlocks = append(unlocks, u)

		if e.notifier != nil {
			if err := e.notifier.Notify(ctx, u); err != nil {
				notifyErr = append(notifyErr, err)
			}
		}
	}

	if len(notifyErr) > 0 {
		return unlocks, shared.WrapError("achievement", "Notify", shared.ErrExternalService,
			"unlock notification failed", errors.Join(notifyErr...))
	}
	return unlocks, nil
}

// Unlocked returns the definitions of every unlocked achievement in unlock
// order. Ids missing from the rule table are returned with only their ID set.
func (e *Engine) Unlocked() []Definition {
	byID := make(map[ID]Definition, len(e.rules))
	for _, r := range e.rules {
		byID[r.ID] = r
	}

	out := make([]Definition, 0, e.set.Len())
	for _, id := range e.set.IDs() {
		if def, ok := byID[id]; ok {
			out = append(out, def)
			continue
		}
		out = append(out, Definition{ID: id, Name: string(id)})
	}
	return out
}
