package timing

import (
	"testing"
	"time"
)

func TestHistoryFIFOEviction(t *testing.T) {
	h := NewHistory(100)

	for i := 0; i < 100; i++ {
		h.Append(Record{Timestamp: time.Now()})
	}
	if h.Len() != 100 {
		t.Fatalf("len = %d, want 100", h.Len())
	}

	// The 101st append evicts the oldest (id 1).
	h.Append(Record{Timestamp: time.Now()})
	if h.Len() != 100 {
		t.Fatalf("len after overflow = %d, want 100", h.Len())
	}

	records := h.Recent(0)
	if records[0].ID != 101 {
		t.Errorf("newest id = %d, want 101", records[0].ID)
	}
	if records[len(records)-1].ID != 2 {
		t.Errorf("oldest id = %d, want 2 (id 1 evicted)", records[len(records)-1].ID)
	}
}

func TestHistoryIDsIncrement(t *testing.T) {
	h := NewHistory(10)
	for want := 1; want <= 3; want++ {
		rec := h.Append(Record{})
		if rec.ID != want {
			t.Errorf("id = %d, want %d", rec.ID, want)
		}
	}
}

func TestHistoryRecentOrderAndLimit(t *testing.T) {
	h := NewHistory(10)
	for i := 0; i < 5; i++ {
		h.Append(Record{})
	}

	records := h.Recent(3)
	if len(records) != 3 {
		t.Fatalf("len = %d, want 3", len(records))
	}
	// Most recent first.
	for i, want := range []int{5, 4, 3} {
		if records[i].ID != want {
			t.Errorf("records[%d].ID = %d, want %d", i, records[i].ID, want)
		}
	}
}

func TestHistorySetFarSplit(t *testing.T) {
	h := NewHistory(10)
	rec := h.Append(Record{})

	if !h.SetFarSplit(rec.ID, 10300.0, 13400.0) {
		t.Fatal("SetFarSplit returned false for existing record")
	}
	got := h.Recent(1)[0]
	if got.HogToHogMS == nil || *got.HogToHogMS != 10300.0 {
		t.Errorf("hog_to_hog_ms = %v, want 10300", got.HogToHogMS)
	}
	if got.TotalMS == nil || *got.TotalMS != 13400.0 {
		t.Errorf("total_ms = %v, want 13400", got.TotalMS)
	}

	if h.SetFarSplit(999, 1, 2) {
		t.Error("SetFarSplit returned true for missing record")
	}
}

func TestHistoryDeleteAndClear(t *testing.T) {
	h := NewHistory(10)
	h.Append(Record{})
	second := h.Append(Record{})
	h.Append(Record{})

	if !h.Delete(second.ID) {
		t.Fatal("Delete returned false for existing record")
	}
	if h.Delete(second.ID) {
		t.Error("Delete returned true for already-deleted record")
	}
	if h.Len() != 2 {
		t.Fatalf("len after delete = %d, want 2", h.Len())
	}

	h.Clear()
	if h.Len() != 0 {
		t.Fatalf("len after clear = %d, want 0", h.Len())
	}
	// Ids restart after a clear.
	if rec := h.Append(Record{}); rec.ID != 1 {
		t.Errorf("id after clear = %d, want 1", rec.ID)
	}
}
