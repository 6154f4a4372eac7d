package rng

import (
	"crypto/rand"
	"encoding/binary"
	"time"
)

// Source is a seeded mulberry32 generator. Each call advances a 32-bit
// counter, so the whole sequence is a pure function of the seed.
type Source struct {
	seed  uint32
	state uint32
}

func New(seed uint32) *Source {
	return &Source{seed: seed, state: seed}
}

// NewSeed returns a fresh seed for a round. This is the only place entropy
// enters the simulation.
func NewSeed() uint32 {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		return uint32(time.Now().UnixNano())
	}
	return binary.BigEndian.Uint32(b[:])
}

func (s *Source) Seed() uint32 { return s.seed }

// Float64 returns the next value in [0,1).
func (s *Source) Float64() float64 {
	s.state += 0x6D2B79F5
	t := s.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64(t^(t>>14)) / 4294967296.0
}

// Intn returns a value in [0,n). n <= 0 yields 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	v := int(s.Float64() * float64(n))
	if v >= n {
		v = n - 1
	}
	return v
}

func (s *Source) Chance(p float64) bool {
	return s.Float64() < p
}

// Sign returns -1 or 1 with equal probability.
func (s *Source) Sign() int {
	if s.Float64() < 0.5 {
		return -1
	}
	return 1
}

// Range returns a value in [lo, hi).
func (s *Source) Range(lo, hi float64) float64 {
	return lo + s.Float64()*(hi-lo)
}
