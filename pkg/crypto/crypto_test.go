package crypto

import (
	"math/big"
	"testing"
)

func TestGenerateSeedBelowModulus(t *testing.T) {
	limit := new(big.Int).Lsh(big.NewInt(1), 248) // 31 bytes
	for i := 0; i < 64; i++ {
		s, err := GenerateSeed()
		if err != nil {
			t.Fatalf("generate seed: %v", err)
		}
		if s.Cmp(limit) >= 0 {
			t.Fatalf("seed exceeds 31-byte bound: %s", s)
		}
		if s.Cmp(SNARK_FIELD_SIZE) >= 0 {
			t.Fatalf("seed exceeds scalar modulus: %s", s)
		}
	}
}

func TestCommitmentRoundTrip(t *testing.T) {
	seed := big.NewInt(123456789)

	commit, err := Commitment(seed)
	if err != nil {
		t.Fatalf("commitment: %v", err)
	}

	opened, err := Poseidon1(seed)
	if err != nil {
		t.Fatalf("poseidon1: %v", err)
	}
	if opened.Cmp(commit) != 0 {
		t.Fatalf("commitment does not reopen: %s != %s", opened, commit)
	}
}

func TestPoseidonAritiesDisagree(t *testing.T) {
	// Arity is part of the domain; the same leading inputs must not collide
	// across arities.
	a, b := big.NewInt(1), big.NewInt(2)

	h1, err := Poseidon1(a)
	if err != nil {
		t.Fatal(err)
	}
	h2, err := Poseidon2(a, b)
	if err != nil {
		t.Fatal(err)
	}
	h3, err := Poseidon3(a, b, big.NewInt(0))
	if err != nil {
		t.Fatal(err)
	}

	if h1.Cmp(h2) == 0 || h2.Cmp(h3) == 0 || h1.Cmp(h3) == 0 {
		t.Fatalf("arity collision: %s %s %s", h1, h2, h3)
	}
}

func TestCombinedSeedDependsOnAllInputs(t *testing.T) {
	s1, s2 := big.NewInt(1), big.NewInt(2)

	base, err := CombinedSeed(s1, s2, 1)
	if err != nil {
		t.Fatal(err)
	}

	swapped, err := CombinedSeed(s2, s1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if base.Cmp(swapped) == 0 {
		t.Fatal("combined seed is symmetric in the seeds; role assignment must be positional")
	}

	otherSession, err := CombinedSeed(s1, s2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if base.Cmp(otherSession) == 0 {
		t.Fatal("combined seed ignores the session id")
	}
}

func TestFieldBytesRoundTrip(t *testing.T) {
	v := new(big.Int).Sub(SNARK_FIELD_SIZE, big.NewInt(1))
	if got := FieldFromBytes(FieldBytes(v)); got.Cmp(v) != 0 {
		t.Fatalf("bytes round trip: %s != %s", got, v)
	}
}

func TestFieldHexRoundTrip(t *testing.T) {
	v := big.NewInt(0xABCDEF)
	h := FieldToHex(v)
	if len(h) != 66 {
		t.Fatalf("hex length %d, want 66", len(h))
	}
	got, err := FieldFromHex(h)
	if err != nil {
		t.Fatalf("parse hex: %v", err)
	}
	if got.Cmp(v) != 0 {
		t.Fatalf("hex round trip: %s != %s", got, v)
	}
}

func TestFieldFromHexRejectsOversized(t *testing.T) {
	over := new(big.Int).Add(SNARK_FIELD_SIZE, big.NewInt(1))
	if _, err := FieldFromHex(FieldToHex(over)); err == nil {
		t.Fatal("expected rejection of value above the modulus")
	}
}

func TestParseField(t *testing.T) {
	cases := []struct {
		in      string
		wantErr bool
	}{
		{"12345", false},
		{"0x01", false},
		{"", true},
		{"not-a-number", true},
		{"-5", true},
	}
	for _, tc := range cases {
		_, err := ParseField(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseField(%q): err=%v, wantErr=%v", tc.in, err, tc.wantErr)
		}
	}
}
