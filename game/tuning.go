package game

import "time"

// Simulation tuning. Distances are world pixels, durations seconds.
const (
	WorldSize = 500.0

	TickHz      = 60
	BroadcastHz = 15
	TickDt      = 1.0 / TickHz

	CountdownSeconds = 3.0

	CatSpeed      = 180.0
	CatSize       = 36.0
	WalkFrequency = 4.0
	InputLimit    = 1.5

	FishSize          = 28.0
	FishSwimSpeed     = 36.0
	FishSpawnMargin   = 30.0
	fishSpawnAttempts = 200

	NormalFishTimeLimit = 10.0
	GoldenFishTimeLimit = 6.0
	GoldenFishChance    = 0.1
	NormalFishPoints    = 1
	GoldenFishPoints    = 5

	PowerUpSize          = 34.0
	PowerUpChance        = 0.05
	PowerUpLifetime      = 5.0
	PowerUpDuration      = 30.0
	powerUpSpawnMargin   = 36.0
	powerUpSpawnAttempts = 40

	TimeIncreaseLimit = 15.0
	TimeDecreaseLimit = 5.0

	SpeedUpMultiplier   = 2.0
	SpeedDownMultiplier = 1 / 1.5

	spawnRingMax    = 140.0
	spawnRingMargin = 40.0
)

// Bomb-pass mode.
const (
	BombWorldScale      = 5.0
	BombTimerDuration   = 30.0
	BombTimerBonus      = 10.0
	BombSlowDuration    = 1.0
	BombSlowFactor      = 0.6
	BombPassBackWindow  = 1.0
	BombPowerUpInterval = 5.0
	BombPowerUpMax      = 10
	BombPowerUpLifetime = 30.0
)

const (
	TickInterval      = time.Second / TickHz
	BroadcastInterval = time.Second / BroadcastHz
)

// MaxNameLength bounds display names in bytes.
const MaxNameLength = 32
