package grid

import "math"

// Rect is an axis-aligned wall rectangle in world coordinates.
type Rect struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SegmentsToRects converts grid segments into thin wall rectangles centred
// inside their cells.
func SegmentsToRects(segments []Segment, world float64) []Rect {
	cellSize := world / Size
	thickness := cellSize * WallThicknessRate
	rects := make([]Rect, 0, len(segments))
	for _, seg := range segments {
		if seg.Orientation == Horizontal {
			rects = append(rects, Rect{
				X:      float64(seg.Col) * cellSize,
				Y:      float64(seg.Row)*cellSize + (cellSize-thickness)/2,
				Width:  float64(seg.Length) * cellSize,
				Height: thickness,
			})
			continue
		}
		rects = append(rects, Rect{
			X:      float64(seg.Col)*cellSize + (cellSize-thickness)/2,
			Y:      float64(seg.Row) * cellSize,
			Width:  thickness,
			Height: float64(seg.Length) * cellSize,
		})
	}
	return rects
}

// BlockedFromRects marks every cell whose centre lies inside a wall. It is the
// inverse of SegmentsToRects for walls that came from segments.
func BlockedFromRects(rects []Rect, world float64) *Blocked {
	var b Blocked
	cellSize := world / Size
	for row := 0; row < Size; row++ {
		for col := 0; col < Size; col++ {
			cx := (float64(col) + 0.5) * cellSize
			cy := (float64(row) + 0.5) * cellSize
			for _, r := range rects {
				if cx >= r.X && cx <= r.X+r.Width && cy >= r.Y && cy <= r.Y+r.Height {
					b[row][col] = true
					break
				}
			}
		}
	}
	return &b
}

// BoundaryRects returns the four border walls of a square world.
func BoundaryRects(world float64) []Rect {
	thickness := (world / Size) * WallThicknessRate
	return []Rect{
		{X: 0, Y: 0, Width: world, Height: thickness},
		{X: 0, Y: world - thickness, Width: world, Height: thickness},
		{X: 0, Y: 0, Width: thickness, Height: world},
		{X: world - thickness, Y: 0, Width: thickness, Height: world},
	}
}

func CircleIntersectsRect(cx, cy, radius float64, r Rect) bool {
	closestX := Clamp(cx, r.X, r.X+r.Width)
	closestY := Clamp(cy, r.Y, r.Y+r.Height)
	dx := cx - closestX
	dy := cy - closestY
	return dx*dx+dy*dy < radius*radius
}

func CircleIntersectsAny(cx, cy, radius float64, rects []Rect) bool {
	for _, r := range rects {
		if CircleIntersectsRect(cx, cy, radius, r) {
			return true
		}
	}
	return false
}

const maxResolveIterations = 4

// ResolveCircle pushes a circle out of every rectangle it overlaps along the
// closest-point normal. Several passes handle corners where two walls meet.
func ResolveCircle(x, y, radius float64, rects []Rect) (float64, float64) {
	if len(rects) == 0 || radius <= 0 {
		return x, y
	}
	moved := true
	for i := 0; moved && i < maxResolveIterations; i++ {
		moved = false
		for _, r := range rects {
			closestX := Clamp(x, r.X, r.X+r.Width)
			closestY := Clamp(y, r.Y, r.Y+r.Height)
			dx := x - closestX
			dy := y - closestY
			distSq := dx*dx + dy*dy
			if distSq >= radius*radius {
				continue
			}
			if distSq == 0 {
				// centre is inside the rectangle: leave across the thin axis
				dx, dy = 0, 0
				if r.Width < r.Height {
					dx = -1
					if x >= r.X+r.Width/2 {
						dx = 1
					}
				} else {
					dy = -1
					if y >= r.Y+r.Height/2 {
						dy = 1
					}
				}
				distSq = 1
			}
			dist := math.Sqrt(distSq)
			overlap := radius - dist
			x += dx / dist * overlap
			y += dy / dist * overlap
			moved = true
		}
	}
	return x, y
}
