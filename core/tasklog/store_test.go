package tasklog

import "testing"

func TestNopStore_SatisfiesStore(t *testing.T) {
	var s Store = NopStore{}
	if err := s.Append(nil, Record{TaskID: "Delivery0"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := s.Query(nil, Query{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != nil {
		t.Fatalf("expected nil result, got %v", out)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
