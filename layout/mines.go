package layout

import "math"

const (
	MaxMines        = 3
	MineSize        = 26.0
	MineMinDistance = 25.0
	mineAttempts    = 200
)

type Mine struct {
	X, Y, Size float64
}

// Blocker reports whether a mine of the given safe radius may not sit at x,y.
type Blocker func(x, y, safeRadius float64) bool

// Mines scatters up to MaxMines mines inside the world. blocked vetoes
// positions that touch walls, players or the fish; mines also keep their
// distance from each other. Fewer mines than rolled is fine.
func (g *Generator) Mines(blocked Blocker) []Mine {
	result := []Mine{}
	count := g.Rand.Intn(MaxMines + 1)
	if count == 0 {
		return result
	}
	radius := MineSize / 2
	safeRadius := radius + MineMinDistance
	margin := safeRadius + 4

	for attempts := 0; len(result) < count && attempts < mineAttempts; attempts++ {
		x := g.Rand.Range(margin, g.World-margin)
		y := g.Rand.Range(margin, g.World-margin)
		if x-safeRadius < 0 || y-safeRadius < 0 || x+safeRadius > g.World || y+safeRadius > g.World {
			continue
		}
		if blocked != nil && blocked(x, y, safeRadius) {
			continue
		}
		tooClose := false
		for _, m := range result {
			if math.Hypot(x-m.X, y-m.Y) <= m.Size/2+safeRadius {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		result = append(result, Mine{X: x, Y: y, Size: MineSize})
	}
	return result
}
