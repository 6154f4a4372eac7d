package game

import (
	"time"

	"arenagame/grid"
	"arenagame/layout"
)

type Phase uint8

const (
	PhaseLobby Phase = iota
	PhaseCountdown
	PhasePlaying
	PhaseEnded
)

var phaseNames = [...]string{"lobby", "countdown", "playing", "ended"}

func (p Phase) String() string {
	if int(p) < len(phaseNames) {
		return phaseNames[p]
	}
	return "lobby"
}

// ParsePhase maps a phase name back to its value. Unknown names are lobby.
func ParsePhase(name string) Phase {
	for i, n := range phaseNames {
		if n == name {
			return Phase(i)
		}
	}
	return PhaseLobby
}

type Mode string

const (
	ModeClassic  Mode = "classic"
	ModeBombPass Mode = "bomb-pass"
)

// ParseMode normalizes a requested mode; anything unknown plays classic.
func ParseMode(name string) Mode {
	if Mode(name) == ModeBombPass {
		return ModeBombPass
	}
	return ModeClassic
}

func (m Mode) WorldSize() float64 {
	if m == ModeBombPass {
		return WorldSize * BombWorldScale
	}
	return WorldSize
}

type FishType string

const (
	FishNormal       FishType = "normal"
	FishGolden       FishType = "golden"
	FishTimeIncrease FishType = "timeIncrease"
	FishTimeDecrease FishType = "timeDecrease"
)

type StatusType string

const (
	StatusSpeedUp      StatusType = "speedUp"
	StatusSpeedDown    StatusType = "speedDown"
	StatusTimeIncrease StatusType = "timeIncrease"
	StatusTimeDecrease StatusType = "timeDecrease"
)

// classic power-ups draw from every effect
var classicEffects = []StatusType{StatusSpeedUp, StatusSpeedDown, StatusTimeIncrease, StatusTimeDecrease}

// PowerUpType labels bomb-pass pickups. Classic power-ups carry none.
type PowerUpType string

const (
	PowerUpNone PowerUpType = ""
	PowerUpFast PowerUpType = "fast"
	PowerUpSlow PowerUpType = "slow"
)

type Appearance map[string]any

type Player struct {
	ID         string
	Name       string
	Score      int
	Ready      bool
	Alive      bool
	X, Y       float64
	Size       float64
	Facing     int
	Moving     bool
	WalkCycle  float64
	StepAccum  float64
	Appearance Appearance

	joinedAt time.Time
	absent   bool
}

type Fish struct {
	X, Y      float64
	Size      float64
	Alive     bool
	Spawned   bool
	Type      FishType
	Direction int
}

type PowerUp struct {
	X, Y      float64
	Size      float64
	Active    bool
	Remaining float64
	Type      PowerUpType
}

type StatusEffect struct {
	Type      StatusType
	Remaining float64
	// PlayerID is set when the effect only applies to one player.
	PlayerID string
}

type Input struct {
	X, Y float64
}

// PresenceMeta is one entry of the transport's presence snapshot.
type PresenceMeta struct {
	PlayerID   string
	Name       string
	Appearance Appearance
	JoinedAt   time.Time
}

type Mine = layout.Mine

type Wall = grid.Rect
