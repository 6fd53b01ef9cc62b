package model

import "testing"

func TestCanonicalPairIsOrderIndependent(t *testing.T) {
	a1, b1 := CanonicalPair("u2", "u1")
	a2, b2 := CanonicalPair("u1", "u2")
	if a1 != a2 || b1 != b2 {
		t.Fatalf("pair not canonical: (%s,%s) vs (%s,%s)", a1, b1, a2, b2)
	}
	if a1 != "u1" || b1 != "u2" {
		t.Fatalf("unexpected order: (%s,%s)", a1, b1)
	}
}

func TestPeerOf(t *testing.T) {
	m := Match{UserAID: "u1", UserBID: "u2"}
	if m.PeerOf("u1") != "u2" || m.PeerOf("u2") != "u1" {
		t.Fatalf("unexpected peers")
	}
	if m.PeerOf("u3") != "" {
		t.Fatalf("outsider should have no peer")
	}
}
