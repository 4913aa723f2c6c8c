package events

import "testing"

func TestPushAndCursorIteration(t *testing.T) {
	s := NewStream()
	s.Push(Event{Kind: ProjectDeclare, Name: "demo"})
	s.Push(Event{Kind: TargetDeclare, Name: "demo_lib"})

	if got := s.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}

	c := s.NewCursor()
	ev, ok := c.Next()
	if !ok || ev.Kind != ProjectDeclare || ev.Name != "demo" {
		t.Errorf("first event = %+v, ok=%v", ev, ok)
	}
	ev, ok = c.Next()
	if !ok || ev.Kind != TargetDeclare || ev.Name != "demo_lib" {
		t.Errorf("second event = %+v, ok=%v", ev, ok)
	}
	if _, ok := c.Next(); ok {
		t.Errorf("expected cursor exhausted")
	}
}

func TestCursorsAreIndependent(t *testing.T) {
	s := NewStream()
	s.Push(Event{Kind: VarSet, Key: "A", Value: "1"})
	s.Push(Event{Kind: VarSet, Key: "B", Value: "2"})

	c1 := s.NewCursor()
	c1.Next()
	c2 := s.NewCursor()
	ev, _ := c2.Next()
	if ev.Key != "A" {
		t.Errorf("fresh cursor should start at the first event, got %q", ev.Key)
	}
	c1.Next()
	if c2.Pos() != 1 {
		t.Errorf("advancing c1 should not move c2, c2.Pos() = %d", c2.Pos())
	}
}

func TestPushCopiesSlicePayloads(t *testing.T) {
	s := NewStream()
	values := []string{"a", "b"}
	s.Push(Event{Kind: TargetAddSource, Values: values})
	values[0] = "mutated"

	ev := s.At(0)
	if ev.Values[0] != "a" {
		t.Errorf("Push should deep-copy Values; got %q after caller mutation", ev.Values[0])
	}
}
