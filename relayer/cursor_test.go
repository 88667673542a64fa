package relayer

import "testing"

func TestMemCursorStore(t *testing.T) {
	s := NewMemCursorStore()

	if _, ok := s.Load("eth"); ok {
		t.Fatal("fresh store reported a cursor")
	}
	if err := s.Save("eth", 42); err != nil {
		t.Fatalf("save: %v", err)
	}
	if b, ok := s.Load("eth"); !ok || b != 42 {
		t.Fatalf("got (%d,%v), want (42,true)", b, ok)
	}
	if err := s.Save("eth", 43); err != nil {
		t.Fatalf("save: %v", err)
	}
	if b, _ := s.Load("eth"); b != 43 {
		t.Fatalf("got %d, want overwritten cursor 43", b)
	}
	if _, ok := s.Load("azero"); ok {
		t.Fatal("chains must not share a cursor")
	}
}
