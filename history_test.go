package gnssl1

import "testing"

func TestStoreEphemerisRejectsOutOfRangePRN(t *testing.T) {
	h := NewHistoryStore()
	err := h.StoreEphemeris(Ephemeris{PRN: 0})
	if err == nil {
		t.Fatalf("expected an error for PRN 0")
	}
	pe := err.(*PipelineError)
	if pe.Kind != InputMalformed {
		t.Fatalf("kind = %v, want InputMalformed", pe.Kind)
	}
}

func TestStoreEphemerisCapacityDrop(t *testing.T) {
	h := NewHistoryStore()
	var lastErr error
	for i := 0; i < MaxEphHistory+1; i++ {
		lastErr = h.StoreEphemeris(Ephemeris{PRN: 1, Toe: float64(i)})
	}
	if lastErr == nil {
		t.Fatalf("expected a Capacity error once history fills")
	}
	pe := lastErr.(*PipelineError)
	if pe.Kind != Capacity {
		t.Fatalf("kind = %v, want Capacity", pe.Kind)
	}
	if len(h.EphHistory[1]) != MaxEphHistory {
		t.Fatalf("history length = %d, want %d", len(h.EphHistory[1]), MaxEphHistory)
	}
}

func TestStoreObservationLatchesFirstMessageFamily(t *testing.T) {
	h := NewHistoryStore()
	rec := &Legacy1002Record{PRNs: []int{1}, Pseudorange: []float64{1000}}
	if _, err := h.StoreObservation(1, rec); err != nil {
		t.Fatalf("first store: %v", err)
	}
	if h.ObservationType != 1 {
		t.Fatalf("ObservationType = %d, want 1", h.ObservationType)
	}

	other := &MSM4Record{PRNs: []int{2}, Pseudorange: []float64{1000}}
	_, err := h.StoreObservation(4, other)
	if err == nil {
		t.Fatalf("expected a fatal error for a mixed observation stream")
	}
	pe := err.(*PipelineError)
	if pe.Kind != Configuration || !pe.Kind.Fatal() {
		t.Fatalf("kind = %v, want a fatal Configuration error", pe.Kind)
	}
}

func TestStoreObservationDuplicatesRecordAcrossListedPRNs(t *testing.T) {
	h := NewHistoryStore()
	rec := &Legacy1002Record{PRNs: []int{3, 4}, Pseudorange: []float64{1000, 2000}}
	if _, err := h.StoreObservation(1, rec); err != nil {
		t.Fatalf("store: %v", err)
	}
	if len(h.ObsHistory[3]) != 1 || len(h.ObsHistory[4]) != 1 {
		t.Fatalf("expected the record to appear in both PRN 3 and PRN 4 history")
	}
}
