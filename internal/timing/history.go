package timing

import (
	"sync"
	"time"
)

// DefaultHistorySize bounds the in-memory record buffer.
const DefaultHistorySize = 100

// Record is an immutable snapshot of a session taken when it completed.
// HogToHogMS and TotalMS stay nil when the stone never reached the far hog
// line. The one post-completion mutation allowed is filling those in when a
// late hog_far trigger arrives.
type Record struct {
	ID              int       `json:"id"`
	Timestamp       time.Time `json:"timestamp"`
	TeeToHogCloseMS *float64  `json:"tee_to_hog_close_ms"`
	HogToHogMS      *float64  `json:"hog_to_hog_ms"`
	TotalMS         *float64  `json:"total_ms"`
}

// History retains the most recent completed sessions, newest first.
// Writers are the coordinator goroutine only; readers are HTTP handlers.
// Reads copy, so a reader sees either the pre- or post-append state.
type History struct {
	mu       sync.RWMutex
	records  []Record
	capacity int
	nextID   int
}

func NewHistory(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultHistorySize
	}
	return &History{capacity: capacity, nextID: 1}
}

// Append assigns the next id and stores the record. Once the buffer exceeds
// capacity the oldest record is evicted.
func (h *History) Append(rec Record) Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	rec.ID = h.nextID
	h.nextID++

	h.records = append([]Record{rec}, h.records...)
	if len(h.records) > h.capacity {
		h.records = h.records[:h.capacity]
	}
	return rec
}

// SetFarSplit fills in the far-hog derived splits on the given record.
func (h *History) SetFarSplit(id int, hogToHogMS, totalMS float64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.records {
		if h.records[i].ID == id {
			hh, tt := hogToHogMS, totalMS
			h.records[i].HogToHogMS = &hh
			h.records[i].TotalMS = &tt
			return true
		}
	}
	return false
}

// Recent returns up to limit records, most recent first. limit <= 0 means
// all retained records.
func (h *History) Recent(limit int) []Record {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := len(h.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]Record, n)
	copy(out, h.records[:n])
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.records)
}

func (h *History) Delete(id int) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.records {
		if h.records[i].ID == id {
			h.records = append(h.records[:i], h.records[i+1:]...)
			return true
		}
	}
	return false
}

func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = nil
	h.nextID = 1
}
