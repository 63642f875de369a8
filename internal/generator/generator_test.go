package generator

import (
	"strings"
	"testing"
)

func TestGuestName(t *testing.T) {
	g := NewWithSeed(42)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		name := g.GuestName()
		if !strings.HasPrefix(name, "guest_") || len(name) != len("guest_")+9 {
			t.Fatalf("unexpected guest name %q", name)
		}
		if !IsGuestName(name) {
			t.Fatalf("IsGuestName rejected %q", name)
		}
		seen[name] = true
	}
	if len(seen) < 45 {
		t.Fatalf("guest names should rarely collide, got %d distinct", len(seen))
	}
}

func TestIsGuestName(t *testing.T) {
	for _, name := range []string{"neo", "guest_", "guest_ABCDEFGHI", "guest_abc", "guest_abcdefghij"} {
		if IsGuestName(name) {
			t.Fatalf("%q should not be a guest name", name)
		}
	}
}

func TestPick(t *testing.T) {
	g := NewWithSeed(1)
	if got := g.Pick(nil); got != "" {
		t.Fatalf("expected empty pick, got %q", got)
	}
	options := []string{"Web", "Crypto"}
	for i := 0; i < 20; i++ {
		got := g.Pick(options)
		if got != "Web" && got != "Crypto" {
			t.Fatalf("unexpected pick %q", got)
		}
	}
}

func TestPickWeightedFavorsWeak(t *testing.T) {
	g := NewWithSeed(7)
	options := []string{"Web", "Crypto", "Forensics", "OSINT"}
	weak := map[string]struct{}{"Forensics": {}}

	counts := map[string]int{}
	for i := 0; i < 2000; i++ {
		counts[g.PickWeighted(options, weak, 9)]++
	}
	// Forensics weighs 10 of 13, the others 1 each.
	if counts["Forensics"] < 1200 {
		t.Fatalf("weak option should dominate, got %v", counts)
	}
	for _, opt := range []string{"Web", "Crypto", "OSINT"} {
		if counts[opt] == 0 {
			t.Fatalf("every option should remain reachable, got %v", counts)
		}
	}
}
