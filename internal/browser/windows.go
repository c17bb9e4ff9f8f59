package browser

import (
	"sort"
	"sync"
)

// windowOrder remembers top-level pages in the order they were opened, so
// window indexes stay stable however the browser lists its targets.
type windowOrder struct {
	mu     sync.Mutex
	opened []string
}

// add records a page handle. Known handles keep their position.
func (w *windowOrder) add(handle string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.addLocked(handle)
}

func (w *windowOrder) addLocked(handle string) {
	for _, h := range w.opened {
		if h == handle {
			return
		}
	}
	w.opened = append(w.opened, handle)
}

// sort returns handles ordered by when they were opened. Handles never seen
// before are recorded in the order given, after all known ones.
func (w *windowOrder) sort(handles []string) []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, h := range handles {
		w.addLocked(h)
	}
	rank := make(map[string]int, len(w.opened))
	for i, h := range w.opened {
		rank[h] = i
	}

	sorted := append([]string(nil), handles...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return rank[sorted[i]] < rank[sorted[j]]
	})
	return sorted
}
