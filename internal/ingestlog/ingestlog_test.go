package ingestlog

import (
	"fmt"
	"testing"
)

func TestRingBufferEvictsOldest(t *testing.T) {
	r := NewRingBuffer(3)

	for i := 0; i < 5; i++ {
		r.Append(Entry{FileName: fmt.Sprintf("doc%d.xml", i)})
	}

	entries := r.Entries()
	if len(entries) != 3 {
		t.Fatalf("retained %d entries, want 3", len(entries))
	}
	want := []string{"doc2.xml", "doc3.xml", "doc4.xml"}
	for i, w := range want {
		if entries[i].FileName != w {
			t.Errorf("entry %d = %q, want %q", i, entries[i].FileName, w)
		}
	}
}

func TestRingBufferClear(t *testing.T) {
	r := NewRingBuffer(3)
	r.Append(Entry{FileName: "a.xml"})
	r.Clear()

	if got := len(r.Entries()); got != 0 {
		t.Errorf("entries after clear = %d", got)
	}

	// Still usable after clearing.
	r.Append(Entry{FileName: "b.xml"})
	if got := r.Entries(); len(got) != 1 || got[0].FileName != "b.xml" {
		t.Errorf("entries = %v", got)
	}
}

func TestServiceOutcomeFilter(t *testing.T) {
	svc := NewService("ch-1", nil)

	svc.Record("ok.xml", "506", OutcomeSuccess, "")
	svc.Record("bad.xml", "", OutcomeRejected, "missing required field Clave")
	svc.Record("msg.xml", "507", OutcomeResponse, "")
	svc.Record("ok2.xml", "508", OutcomeSuccess, "")

	if got := len(svc.Entries("")); got != 4 {
		t.Errorf("all entries = %d", got)
	}

	rejected := svc.Entries(OutcomeRejected)
	if len(rejected) != 1 || rejected[0].Detail != "missing required field Clave" {
		t.Errorf("rejected entries = %v", rejected)
	}

	if got := len(svc.Entries(OutcomeSuccess)); got != 2 {
		t.Errorf("success entries = %d", got)
	}

	svc.Clear()
	if got := len(svc.Entries("")); got != 0 {
		t.Errorf("entries after clear = %d", got)
	}
}

func TestServiceCapsAtDefaultCapacity(t *testing.T) {
	svc := NewService("ch-1", nil)

	for i := 0; i < DefaultCapacity+20; i++ {
		svc.Record(fmt.Sprintf("doc%d.xml", i), "", OutcomeSuccess, "")
	}

	entries := svc.Entries("")
	if len(entries) != DefaultCapacity {
		t.Fatalf("retained %d entries, want %d", len(entries), DefaultCapacity)
	}
	if entries[0].FileName != "doc20.xml" {
		t.Errorf("oldest retained = %q, want doc20.xml", entries[0].FileName)
	}
}
