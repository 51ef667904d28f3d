package addr

import (
	"strings"
	"testing"
)

func TestDerive_Deterministic(t *testing.T) {
	a1, err := Derive(SeedBounty, "board123", Ordinal(0))
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	a2, err := Derive(SeedBounty, "board123", Ordinal(0))
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if a1 != a2 {
		t.Errorf("same inputs produced different addresses: %s vs %s", a1, a2)
	}
	if len(a1) != 64 {
		t.Errorf("address length = %d, want 64", len(a1))
	}
}

func TestDerive_DistinctInputsDistinctAddresses(t *testing.T) {
	seen := map[string]string{}
	cases := []struct {
		name string
		addr func() (string, error)
	}{
		{"bounty-0", func() (string, error) { return Derive(SeedBounty, "board123", Ordinal(0)) }},
		{"bounty-1", func() (string, error) { return Derive(SeedBounty, "board123", Ordinal(1)) }},
		{"bounty-other-board", func() (string, error) { return Derive(SeedBounty, "board456", Ordinal(0)) }},
		{"escrow-0", func() (string, error) { return Derive(SeedBountyEscrow, "board123", Ordinal(0)) }},
		{"submission-0", func() (string, error) { return Derive(SeedBountySubmission, "board123", Ordinal(0)) }},
		{"contributor", func() (string, error) { return Derive(SeedContributorRecord, "board123", Key("walletA")) }},
		{"contributor-b", func() (string, error) { return Derive(SeedContributorRecord, "board123", Key("walletB")) }},
	}
	for _, c := range cases {
		a, err := c.addr()
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if prev, dup := seen[a]; dup {
			t.Errorf("%s collides with %s", c.name, prev)
		}
		seen[a] = c.name
	}
}

func TestDerive_NegativeOrdinalRejected(t *testing.T) {
	_, err := Derive(SeedBounty, "board123", Ordinal(-1))
	if err == nil {
		t.Fatal("expected error for negative ordinal")
	}
	if !strings.Contains(err.Error(), "non-negative") {
		t.Errorf("error = %q", err)
	}
}

func TestDerive_EmptyKeyRejected(t *testing.T) {
	_, err := Derive(SeedContributorRecord, "board123", Key(""))
	if err == nil {
		t.Fatal("expected error for empty key")
	}
}

func TestDerive_EmptySeedRejected(t *testing.T) {
	_, err := Derive("", "board123")
	if err == nil {
		t.Fatal("expected error for empty seed")
	}
}

func TestDerive_KeyBoundaryAmbiguity(t *testing.T) {
	// "ab"+"c" vs "a"+"bc" must not collide thanks to length prefixing.
	a1, err := Derive(SeedBountyApplication, "p", Key("ab"), Key("c"))
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	a2, err := Derive(SeedBountyApplication, "p", Key("a"), Key("bc"))
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if a1 == a2 {
		t.Error("boundary-shifted keys collided")
	}
}
