// Package notify surfaces newly earned achievements one at a time.
package notify

import (
	"log/slog"
	"sync"

	"github.com/tatianab/stemverse/internal/achievements"
	"github.com/tatianab/stemverse/internal/catalog"
	"github.com/tatianab/stemverse/internal/models"
)

// State of the sequencer.
type State int

const (
	Idle State = iota
	Showing
)

func (s State) String() string {
	if s == Showing {
		return "showing"
	}
	return "idle"
}

// Store is the part of the progression store the sequencer needs.
type Store interface {
	State() *models.GameState
	CreditAchievement(id string, tokens int)
	OnChange(func(*models.GameState))
}

// Sequencer awards at most one achievement per evaluation and holds it
// until dismissed. Pending achievements are never queued explicitly; they
// are re-derived from state after each dismissal.
type Sequencer struct {
	mu      sync.Mutex
	store   Store
	eval    *achievements.Evaluator
	ledger  *achievements.Ledger
	logger  *slog.Logger
	state   State
	current catalog.Achievement
	onShow  []func(catalog.Achievement)
}

// New returns an idle Sequencer. Call Attach to follow store changes.
func New(store Store, eval *achievements.Evaluator, ledger *achievements.Ledger, logger *slog.Logger) *Sequencer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sequencer{store: store, eval: eval, ledger: ledger, logger: logger}
}

// Attach subscribes to the store and runs an initial check.
func (q *Sequencer) Attach() {
	q.store.OnChange(func(s *models.GameState) { q.evaluate(s) })
	q.Check()
}

// OnShow registers a callback for each achievement as it is surfaced.
func (q *Sequencer) OnShow(fn func(catalog.Achievement)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onShow = append(q.onShow, fn)
}

// State returns the current sequencer state.
func (q *Sequencer) State() State {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// Current returns the achievement being shown.
func (q *Sequencer) Current() (catalog.Achievement, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.state != Showing {
		return catalog.Achievement{}, false
	}
	return q.current, true
}

// Check evaluates the current store state.
func (q *Sequencer) Check() {
	q.evaluate(q.store.State())
}

// Dismiss hides the current achievement and looks for the next one.
func (q *Sequencer) Dismiss() {
	q.mu.Lock()
	if q.state != Showing {
		q.mu.Unlock()
		return
	}
	q.state = Idle
	q.current = catalog.Achievement{}
	q.mu.Unlock()
	q.Check()
}

// DismissID dismisses only if id is the achievement being shown, so a
// stale auto-dismiss timer cannot close a newer toast.
func (q *Sequencer) DismissID(id string) {
	q.mu.Lock()
	match := q.state == Showing && q.current.ID == id
	q.mu.Unlock()
	if match {
		q.Dismiss()
	}
}

func (q *Sequencer) evaluate(s *models.GameState) {
	q.mu.Lock()
	if q.state == Showing {
		q.mu.Unlock()
		return
	}
	next, ok := q.eval.Next(s, q.ledger.Has)
	if !ok {
		q.mu.Unlock()
		return
	}
	// Enter Showing before crediting so the store change caused by the
	// reward is ignored until dismissal.
	q.state = Showing
	q.current = next
	callbacks := append([](func(catalog.Achievement))(nil), q.onShow...)
	q.mu.Unlock()

	if _, err := q.ledger.Add(next.ID); err != nil {
		q.logger.Error("saving earned achievements", "achievement", next.ID, "error", err)
	}
	q.logger.Info("achievement earned", "achievement", next.ID, "tokens", next.Rewards.Tokens)
	q.store.CreditAchievement(next.ID, next.Rewards.Tokens)
	for _, fn := range callbacks {
		fn(next)
	}
}
