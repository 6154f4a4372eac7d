package layout

import (
	"math"
	"testing"

	"arenagame/grid"
	"arenagame/rng"
)

// randomCells draws n distinct reference cells plus a target cell that is
// none of them.
func randomCells(r *rng.Source, n int) ([]grid.Cell, grid.Cell) {
	seen := make(map[grid.Cell]bool)
	draw := func() grid.Cell {
		for {
			c := grid.Cell{Row: r.Intn(grid.Size), Col: r.Intn(grid.Size)}
			if !seen[c] {
				seen[c] = true
				return c
			}
		}
	}
	refs := make([]grid.Cell, n)
	for i := range refs {
		refs[i] = draw()
	}
	return refs, draw()
}

func TestWallsKeepEveryReferenceConnected(t *testing.T) {
	accepted := 0
	for seed := uint32(1); seed <= 300; seed++ {
		placement := rng.New(seed * 7919)
		refs, target := randomCells(placement, 1+placement.Intn(4))

		g := New(rng.New(seed), 500)
		for _, s := range g.Segments(refs, target) {
			for _, c := range grid.SegmentCells(s) {
				if c == target {
					t.Fatalf("seed %d: segment covers target %+v", seed, target)
				}
				for _, r := range refs {
					if c == r {
						t.Fatalf("seed %d: segment covers reference %+v", seed, r)
					}
				}
			}
		}

		rects := g.Walls(refs, target, nil)
		if rects == nil {
			continue
		}
		accepted++
		blocked := grid.BlockedFromRects(rects, 500)
		for _, r := range refs {
			if !grid.IsPathAvailable(r, target, blocked) {
				t.Fatalf("seed %d: reference %+v cut off from target %+v", seed, r, target)
			}
		}
	}
	if accepted == 0 {
		t.Fatalf("expected at least one layout to be accepted")
	}
}

func TestSegmentsRespectBudget(t *testing.T) {
	for seed := uint32(1); seed <= 200; seed++ {
		g := New(rng.New(seed), 500)
		segs := g.Segments([]grid.Cell{{Row: 2, Col: 2}}, grid.Cell{Row: 7, Col: 7})
		if segs == nil {
			continue
		}
		if len(segs) < MinSegments {
			t.Fatalf("seed %d: got %d segments", seed, len(segs))
		}
		total := 0
		for _, s := range segs {
			if s.Length < 1 || s.Length > MaxSegmentLength {
				t.Fatalf("seed %d: bad segment length %d", seed, s.Length)
			}
			for _, c := range grid.SegmentCells(s) {
				if c.Row < 0 || c.Row >= grid.Size || c.Col < 0 || c.Col >= grid.Size {
					t.Fatalf("seed %d: segment leaves grid %+v", seed, s)
				}
			}
			total += s.Length
		}
		if total > MaxTotalLength {
			t.Fatalf("seed %d: total length %d over budget", seed, total)
		}
	}
}

func TestWallsAvoidEntities(t *testing.T) {
	avoid := []Circle{{X: 250, Y: 250, R: 14}, {X: 60, Y: 60, R: 18}}
	for seed := uint32(1); seed <= 100; seed++ {
		g := New(rng.New(seed), 500)
		rects := g.Walls([]grid.Cell{{Row: 1, Col: 1}}, grid.Cell{Row: 5, Col: 5}, avoid)
		for _, c := range avoid {
			if grid.CircleIntersectsAny(c.X, c.Y, c.R, rects) {
				t.Fatalf("seed %d: wall overlaps entity at (%v,%v)", seed, c.X, c.Y)
			}
		}
	}
}

func TestWallsDeterministicPerSeed(t *testing.T) {
	refs := []grid.Cell{{Row: 0, Col: 0}}
	a := New(rng.New(42), 500).Walls(refs, grid.Cell{Row: 4, Col: 4}, nil)
	b := New(rng.New(42), 500).Walls(refs, grid.Cell{Row: 4, Col: 4}, nil)
	if len(a) != len(b) {
		t.Fatalf("same seed produced %d and %d walls", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("wall %d differs: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestWallsWithoutReferencesIsOpen(t *testing.T) {
	if rects := New(rng.New(7), 500).Walls(nil, grid.Cell{}, nil); rects != nil {
		t.Fatalf("expected open arena without references, got %d walls", len(rects))
	}
}

func TestMinesStayApartAndInside(t *testing.T) {
	for seed := uint32(1); seed <= 200; seed++ {
		g := New(rng.New(seed), 500)
		mines := g.Mines(func(x, y, r float64) bool {
			return math.Hypot(x-250, y-250) < r+14
		})
		if len(mines) > MaxMines {
			t.Fatalf("seed %d: %d mines", seed, len(mines))
		}
		for i, m := range mines {
			if m.X < 0 || m.Y < 0 || m.X > 500 || m.Y > 500 {
				t.Fatalf("seed %d: mine outside world %+v", seed, m)
			}
			if math.Hypot(m.X-250, m.Y-250) < MineSize/2+MineMinDistance+14 {
				t.Fatalf("seed %d: mine placed on vetoed spot %+v", seed, m)
			}
			for _, o := range mines[i+1:] {
				if math.Hypot(m.X-o.X, m.Y-o.Y) <= MineSize/2+MineSize/2+MineMinDistance {
					t.Fatalf("seed %d: mines too close %+v %+v", seed, m, o)
				}
			}
		}
	}
}
