package ordermanager

import (
	"testing"

	"obench/internal/matching"
)

func TestMemoryManager_RecordLookupForget(t *testing.T) {
	m := NewMemoryManager()

	r := Record{ClientID: 42, Handle: 7, Side: matching.Buy, OriginalQty: 100, PriceTick: 500, SubmitTimestamp: 12345}
	if err := m.Record(r); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, ok, err := m.Lookup(7)
	if err != nil || !ok {
		t.Fatalf("Lookup(7) = %v, %v, %v; want found", got, ok, err)
	}
	if got != r {
		t.Fatalf("Lookup(7) = %+v, want %+v", got, r)
	}

	if err := m.Forget(7); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	if _, ok, _ := m.Lookup(7); ok {
		t.Fatal("expected handle 7 to be forgotten")
	}
}

func TestMemoryManager_UnknownHandleNotFound(t *testing.T) {
	m := NewMemoryManager()
	if _, ok, err := m.Lookup(999); ok || err != nil {
		t.Fatalf("Lookup on unknown handle = %v, %v; want false, nil", ok, err)
	}
}

func TestMemoryManager_ForgetUnknownIsNotAnError(t *testing.T) {
	m := NewMemoryManager()
	if err := m.Forget(123456); err != nil {
		t.Fatalf("Forget on unknown handle returned error: %v", err)
	}
}

func TestMemoryManager_ShardingDoesNotLoseRecords(t *testing.T) {
	m := NewMemoryManagerShards(4)
	for h := uint32(0); h < 200; h++ {
		if err := m.Record(Record{Handle: h, OriginalQty: h + 1}); err != nil {
			t.Fatalf("Record(%d): %v", h, err)
		}
	}
	for h := uint32(0); h < 200; h++ {
		got, ok, _ := m.Lookup(h)
		if !ok || got.OriginalQty != h+1 {
			t.Fatalf("Lookup(%d) = %+v, %v; want OriginalQty %d", h, got, ok, h+1)
		}
	}
}
