package grid

import (
	"math"

	"github.com/zyedidia/generic/mapset"
)

const (
	Size              = 10
	WallThicknessRate = 0.6
)

type Cell struct {
	Row int
	Col int
}

type Orientation uint8

const (
	Horizontal Orientation = iota
	Vertical
)

// Segment is a straight run of blocked cells starting at (Row, Col).
type Segment struct {
	Row         int
	Col         int
	Length      int
	Orientation Orientation
}

// Blocked marks cells occupied by wall segments, indexed [row][col].
type Blocked [Size][Size]bool

func clampIndex(v int) int {
	if v < 0 {
		return 0
	}
	if v >= Size {
		return Size - 1
	}
	return v
}

// PositionToCell maps world coordinates onto the grid. Positions outside
// the world are clamped to the border cells.
func PositionToCell(x, y, world float64) Cell {
	cellSize := world / Size
	return Cell{
		Row: clampIndex(int(math.Floor(y / cellSize))),
		Col: clampIndex(int(math.Floor(x / cellSize))),
	}
}

func (c Cell) inBounds() bool {
	return c.Row >= 0 && c.Row < Size && c.Col >= 0 && c.Col < Size
}

func SegmentCells(seg Segment) []Cell {
	cells := make([]Cell, 0, seg.Length)
	for offset := 0; offset < seg.Length; offset++ {
		c := Cell{Row: seg.Row, Col: seg.Col}
		if seg.Orientation == Horizontal {
			c.Col += offset
		} else {
			c.Row += offset
		}
		cells = append(cells, c)
	}
	return cells
}

func BlockedFromSegments(segments []Segment) *Blocked {
	var b Blocked
	for _, seg := range segments {
		for _, c := range SegmentCells(seg) {
			if c.inBounds() {
				b[c.Row][c.Col] = true
			}
		}
	}
	return &b
}

var neighbours = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// IsPathAvailable runs a 4-directional BFS from start to goal over unblocked
// cells. A blocked or out-of-range endpoint is never reachable.
func IsPathAvailable(start, goal Cell, blocked *Blocked) bool {
	if !start.inBounds() || !goal.inBounds() {
		return false
	}
	if blocked != nil && (blocked[start.Row][start.Col] || blocked[goal.Row][goal.Col]) {
		return false
	}
	visited := mapset.New[Cell]()
	visited.Put(start)
	queue := []Cell{start}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if current == goal {
			return true
		}
		for _, d := range neighbours {
			next := Cell{Row: current.Row + d[0], Col: current.Col + d[1]}
			if !next.inBounds() {
				continue
			}
			if blocked != nil && blocked[next.Row][next.Col] {
				continue
			}
			if visited.Has(next) {
				continue
			}
			visited.Put(next)
			queue = append(queue, next)
		}
	}
	return false
}
