package policy

import "testing"

func TestDefaultFromBaseline(t *testing.T) {
	s := New(Version{2, 8, 0})
	if got := s.Get("CMP0048"); got != Old {
		t.Errorf("CMP0048 default at 2.8 = %v, want OLD", got)
	}
	s.SetBaseline(Version{3, 10, 0})
	if got := s.Get("CMP0048"); got != New {
		t.Errorf("CMP0048 default at 3.10 = %v, want NEW", got)
	}
}

func TestExplicitOverrideWinsOverDefault(t *testing.T) {
	s := New(Version{3, 10, 0})
	s.Set("CMP0048", Old)
	if got := s.Get("CMP0048"); got != Old {
		t.Errorf("explicit OLD override = %v, want OLD", got)
	}
}

func TestPushPopScoping(t *testing.T) {
	s := New(Version{3, 10, 0})
	s.Set("CMP0048", Old)
	s.Push()
	s.Set("CMP0048", New)
	if got := s.Get("CMP0048"); got != New {
		t.Errorf("after push+set = %v, want NEW", got)
	}
	s.Pop()
	if got := s.Get("CMP0048"); got != Old {
		t.Errorf("after pop = %v, want OLD (restored)", got)
	}
}

func TestUnknownPolicyDefaultsToUnset(t *testing.T) {
	s := New(Version{3, 10, 0})
	if Known("CMP9999") {
		t.Fatalf("CMP9999 should not be a known policy")
	}
	if got := s.Get("CMP9999"); got != Unset {
		t.Errorf("unknown policy = %v, want UNSET", got)
	}
}

func TestCompatProfile(t *testing.T) {
	s := New(Version{2, 8, 0})
	if err := s.ApplyCompatProfile("CMAKE_3_X"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.Get("CMP0048"); got != New {
		t.Errorf("CMAKE_3_X profile CMP0048 = %v, want NEW", got)
	}
	if got := s.Get("CMP0126"); got != New {
		t.Errorf("CMAKE_3_X profile CMP0126 = %v, want NEW", got)
	}
	if !s.LenientUnknownCommands("CMAKE_3_X") {
		t.Errorf("CMAKE_3_X should be lenient on unknown commands")
	}
}

func TestVersionParseAndCompare(t *testing.T) {
	v1, err := ParseVersion("3.10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v2, err := ParseVersion("3.9.2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v1.Compare(v2) <= 0 {
		t.Errorf("3.10 should compare greater than 3.9.2")
	}
}
