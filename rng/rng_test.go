package rng

import "testing"

func TestSameSeedSameSequence(t *testing.T) {
	a := New(12345)
	b := New(12345)
	for i := 0; i < 1000; i++ {
		va, vb := a.Float64(), b.Float64()
		if va != vb {
			t.Fatalf("sequence diverged at %d: %f != %f", i, va, vb)
		}
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := New(1)
	b := New(2)
	same := 0
	for i := 0; i < 100; i++ {
		if a.Float64() == b.Float64() {
			same++
		}
	}
	if same > 5 {
		t.Fatalf("expected different seeds to produce different sequences, %d/100 equal", same)
	}
}

func TestFloat64Range(t *testing.T) {
	s := New(987654321)
	for i := 0; i < 100000; i++ {
		v := s.Float64()
		if v < 0 || v >= 1 {
			t.Fatalf("value out of [0,1): %f", v)
		}
	}
}

func TestIntnBounds(t *testing.T) {
	s := New(42)
	seen := make(map[int]bool)
	for i := 0; i < 5000; i++ {
		v := s.Intn(4)
		if v < 0 || v >= 4 {
			t.Fatalf("Intn(4) = %d", v)
		}
		seen[v] = true
	}
	if len(seen) != 4 {
		t.Fatalf("expected all of 0..3 to appear, saw %v", seen)
	}
	if s.Intn(0) != 0 || s.Intn(-3) != 0 {
		t.Fatalf("Intn with n<=0 must return 0")
	}
}

func TestSeedAccessor(t *testing.T) {
	s := New(77)
	s.Float64()
	if s.Seed() != 77 {
		t.Fatalf("Seed() = %d, want 77", s.Seed())
	}
}
