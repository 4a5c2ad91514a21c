package achievements

import (
	"slices"
	"sync"
)

// EarnedStore persists the earned id list.
type EarnedStore interface {
	LoadEarned() ([]string, error)
	SaveEarned([]string) error
}

// Ledger is the append-only set of earned achievement ids.
type Ledger struct {
	mu    sync.RWMutex
	ids   []string
	store EarnedStore
}

// OpenLedger loads the earned ids from store.
func OpenLedger(store EarnedStore) (*Ledger, error) {
	ids, err := store.LoadEarned()
	if err != nil {
		return nil, err
	}
	var uniq []string
	for _, id := range ids {
		if !slices.Contains(uniq, id) {
			uniq = append(uniq, id)
		}
	}
	return &Ledger{ids: uniq, store: store}, nil
}

// Has reports whether id has been earned.
func (l *Ledger) Has(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Contains(l.ids, id)
}

// IDs returns the earned ids in award order.
func (l *Ledger) IDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Clone(l.ids)
}

// Add records id and persists the list. It reports false if id was
// already present. The id stays recorded in memory even if saving fails.
func (l *Ledger) Add(id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if slices.Contains(l.ids, id) {
		return false, nil
	}
	l.ids = append(l.ids, id)
	return true, l.store.SaveEarned(slices.Clone(l.ids))
}
