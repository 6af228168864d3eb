package receipt

import "sync"

// History is the in-memory list of recent receipts shown to cashiers, newest
// first. Prepended receipts are provisional until the next Replace with an
// authoritative listing.
type History struct {
	mu       sync.RWMutex
	receipts []Receipt
	limit    int
}

// NewHistory creates a history holding at most limit receipts.
// Zero means no limit.
func NewHistory(limit int) *History {
	return &History{limit: limit}
}

// Prepend records a receipt that was just committed. A backdated manual
// invoice lands at its place by creation time rather than at the front.
func (h *History) Prepend(r Receipt) {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Receipt, 0, len(h.receipts)+1)
	out = append(out, r)
	for _, existing := range h.receipts {
		if existing.ID != r.ID {
			out = append(out, existing)
		}
	}
	SortNewestFirst(out)
	h.receipts = h.trim(out)
}

// Replace swaps the contents for an authoritative listing.
func (h *History) Replace(receipts []Receipt) {
	out := make([]Receipt, len(receipts))
	copy(out, receipts)
	SortNewestFirst(out)

	h.mu.Lock()
	defer h.mu.Unlock()
	h.receipts = h.trim(out)
}

// List returns up to n receipts, newest first. n <= 0 returns all.
func (h *History) List(n int) []Receipt {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if n <= 0 || n > len(h.receipts) {
		n = len(h.receipts)
	}
	out := make([]Receipt, n)
	copy(out, h.receipts[:n])
	return out
}

// Len returns the number of receipts held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.receipts)
}

func (h *History) trim(rs []Receipt) []Receipt {
	if h.limit > 0 && len(rs) > h.limit {
		return rs[:h.limit]
	}
	return rs
}
