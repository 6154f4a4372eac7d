// Package layout generates the random wall layouts placed around the fish.
//
// A layout is a handful of short grid segments. It is accepted only if every
// reference cell (the players) can still reach the target cell and no wall
// overlaps a live entity. When no acceptable layout is found the caller gets
// nil and plays on an open arena.
package layout

import (
	"arenagame/grid"
	"arenagame/rng"

	"github.com/zyedidia/generic/mapset"
)

const (
	MaxTotalLength   = 10
	MaxSegmentLength = 3
	MinSegments      = 2
	SegmentAttempts  = 80
	LayoutAttempts   = 160
	EarlyStopChance  = 0.35

	// extra clearance between a candidate wall and an entity
	EntityMargin = 2.0
)

// Circle is the collision footprint of an entity that walls must not cover.
type Circle struct {
	X, Y, R float64
}

type Generator struct {
	Rand  *rng.Source
	World float64
	// MaxLength overrides MaxTotalLength when > 0.
	MaxLength int
}

func New(r *rng.Source, world float64) *Generator {
	return &Generator{Rand: r, World: world}
}

func (g *Generator) budget() int {
	if g.MaxLength > 0 {
		return g.MaxLength
	}
	return MaxTotalLength
}

// Segments places random segments on free cells, never covering a reference
// cell or the target. Returns nil when fewer than MinSegments were placed.
func (g *Generator) Segments(refs []grid.Cell, target grid.Cell) []grid.Segment {
	reserved := mapset.New[grid.Cell]()
	for _, c := range refs {
		reserved.Put(c)
	}
	reserved.Put(target)
	occupied := mapset.New[grid.Cell]()

	budget := g.budget()
	var segments []grid.Segment
	total := 0
	for attempts := 0; total < budget && attempts < SegmentAttempts; attempts++ {
		if len(segments) >= MinSegments && g.Rand.Chance(EarlyStopChance) {
			break
		}
		maxLen := budget - total
		if maxLen > MaxSegmentLength {
			maxLen = MaxSegmentLength
		}
		length := 1 + g.Rand.Intn(maxLen)
		orientation := grid.Horizontal
		if g.Rand.Chance(0.5) {
			orientation = grid.Vertical
		}
		maxRow, maxCol := grid.Size-1, grid.Size-length
		if orientation == grid.Vertical {
			maxRow, maxCol = grid.Size-length, grid.Size-1
		}
		if maxRow < 0 || maxCol < 0 {
			continue
		}
		seg := grid.Segment{
			Row:         g.Rand.Intn(maxRow + 1),
			Col:         g.Rand.Intn(maxCol + 1),
			Length:      length,
			Orientation: orientation,
		}
		cells := grid.SegmentCells(seg)
		invalid := false
		for _, c := range cells {
			if occupied.Has(c) || reserved.Has(c) {
				invalid = true
				break
			}
		}
		if invalid {
			continue
		}
		for _, c := range cells {
			occupied.Put(c)
		}
		segments = append(segments, seg)
		total += length
	}
	if len(segments) < MinSegments {
		return nil
	}
	return segments
}

// Walls returns the first generated layout that keeps every reference cell
// connected to the target and stays clear of every avoid circle, or nil if
// none was found within LayoutAttempts.
func (g *Generator) Walls(refs []grid.Cell, target grid.Cell, avoid []Circle) []grid.Rect {
	if len(refs) == 0 {
		return nil
	}
	for attempt := 0; attempt < LayoutAttempts; attempt++ {
		segments := g.Segments(refs, target)
		if segments == nil {
			continue
		}
		if !Reachable(refs, target, grid.BlockedFromSegments(segments)) {
			continue
		}
		rects := grid.SegmentsToRects(segments, g.World)
		if overlapsAny(rects, avoid) {
			continue
		}
		return rects
	}
	return nil
}

// Reachable reports whether every ref cell has a path to target.
func Reachable(refs []grid.Cell, target grid.Cell, blocked *grid.Blocked) bool {
	for _, c := range refs {
		if !grid.IsPathAvailable(c, target, blocked) {
			return false
		}
	}
	return true
}

func overlapsAny(rects []grid.Rect, avoid []Circle) bool {
	for _, c := range avoid {
		if grid.CircleIntersectsAny(c.X, c.Y, c.R+EntityMargin, rects) {
			return true
		}
	}
	return false
}
