package domain

import "testing"

func TestAddRemoteDeduplicates(t *testing.T) {
	s := NewSession("abc12345", "host")

	if n := s.AddRemote("r1"); n != 1 {
		t.Errorf("expected 1 remote, got %d", n)
	}
	if n := s.AddRemote("r1"); n != 1 {
		t.Errorf("duplicate join changed count to %d", n)
	}
	if n := s.AddRemote("r2"); n != 2 {
		t.Errorf("expected 2 remotes, got %d", n)
	}
}

func TestRemoveRemoteAccounting(t *testing.T) {
	s := NewSession("abc12345", "host")
	s.AddRemote("r1")
	before := len(s.Remotes)

	s.AddRemote("r2")
	removed, n := s.RemoveRemote("r2")
	if !removed {
		t.Fatal("r2 was not removed")
	}
	if n != before {
		t.Errorf("count after join+leave is %d, want %d", n, before)
	}

	removed, n = s.RemoveRemote("never-joined")
	if removed {
		t.Error("removing an unknown conn reported removed")
	}
	if n != before {
		t.Errorf("count changed to %d on unknown removal", n)
	}
}

func TestMembersOrder(t *testing.T) {
	s := NewSession("abc12345", "host")
	s.AddRemote("r1")
	s.AddRemote("r2")

	got := s.Members()
	want := []ConnID{"host", "r1", "r2"}
	if len(got) != len(want) {
		t.Fatalf("got %d members, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("member[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestApplyClampingLaw(t *testing.T) {
	s := NewSession("abc12345", "host")
	s.TotalSlides = 5

	// excess next calls never leave [0, 4]
	for i := 0; i < 10; i++ {
		idx, ok := s.Apply(CommandNext, 0)
		if !ok {
			t.Fatal("next was not interpreted")
		}
		if idx < 0 || idx > 4 {
			t.Fatalf("next escaped bounds: %d", idx)
		}
	}
	if s.CurrentSlideIndex != 4 {
		t.Errorf("after 10x next index = %d, want 4", s.CurrentSlideIndex)
	}

	for i := 0; i < 10; i++ {
		idx, _ := s.Apply(CommandPrevious, 0)
		if idx < 0 || idx > 4 {
			t.Fatalf("previous escaped bounds: %d", idx)
		}
	}
	if s.CurrentSlideIndex != 0 {
		t.Errorf("after 10x previous index = %d, want 0", s.CurrentSlideIndex)
	}
}

func TestApplyGotoDoesNotClamp(t *testing.T) {
	s := NewSession("abc12345", "host")
	s.TotalSlides = 10

	idx, ok := s.Apply(CommandGoto, 99)
	if !ok {
		t.Fatal("goto was not interpreted")
	}
	if idx != 99 {
		t.Errorf("goto stored %d, want the verbatim 99", idx)
	}

	// next from an out-of-range position clamps back in
	idx, _ = s.Apply(CommandNext, 0)
	if idx != 9 {
		t.Errorf("next after goto(99) = %d, want 9", idx)
	}
}

func TestApplyNextOnEmptyDeck(t *testing.T) {
	s := NewSession("abc12345", "host")

	idx, _ := s.Apply(CommandNext, 0)
	if idx != 0 {
		t.Errorf("next on empty deck moved to %d", idx)
	}
}

func TestApplyOpaqueCommandLeavesPosition(t *testing.T) {
	s := NewSession("abc12345", "host")
	s.TotalSlides = 10
	s.CurrentSlideIndex = 3

	idx, interpreted := s.Apply("scroll", 7)
	if interpreted {
		t.Error("scroll was interpreted as navigation")
	}
	if idx != 3 || s.CurrentSlideIndex != 3 {
		t.Errorf("opaque command moved position to %d", s.CurrentSlideIndex)
	}
}

func TestNewSessionID(t *testing.T) {
	seen := make(map[SessionID]bool)
	for i := 0; i < 100; i++ {
		id, err := NewSessionID(8)
		if err != nil {
			t.Fatalf("NewSessionID: %v", err)
		}
		if len(id) != 8 {
			t.Fatalf("id %q has length %d, want 8", id, len(id))
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}

	id, err := NewSessionID(0)
	if err != nil {
		t.Fatalf("NewSessionID(0): %v", err)
	}
	if len(id) != DefaultSessionIDLength {
		t.Errorf("default length id is %d chars, want %d", len(id), DefaultSessionIDLength)
	}
}
