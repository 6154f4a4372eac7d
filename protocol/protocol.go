package protocol

// Leading byte of every server frame.
const (
	TypeFull  uint8 = 0
	TypePatch uint8 = 1
)

// Wire limits. Longer collections are cut when encoding.
const (
	MaxWalls          = 1024
	MaxMines          = 32
	MaxPlayers        = 32
	MaxPowerUps       = 255
	MaxAppearanceWire = 300
)

// Control message types carried in JSON text frames.
const (
	MsgReady      = "ready"
	MsgAppearance = "appearance"
	MsgChat       = "chat"
	MsgInput      = "input"
	MsgError      = "error"
	MsgWelcome    = "welcome"
)

var (
	phaseCodes   = map[string]uint8{"lobby": 0, "countdown": 1, "playing": 2, "ended": 3}
	phaseNames   = []string{"lobby", "countdown", "playing", "ended"}
	fishCodes    = map[string]uint8{"normal": 0, "golden": 1, "timeIncrease": 2, "timeDecrease": 3}
	fishNames    = []string{"normal", "golden", "timeIncrease", "timeDecrease"}
	powerUpCodes = map[string]uint8{"": 0, "none": 0, "fast": 1, "slow": 2, "invert": 3, "memory": 4}
	powerUpNames = []string{"", "fast", "slow", "invert", "memory"}
)

func phaseName(code uint8) string {
	if int(code) < len(phaseNames) {
		return phaseNames[code]
	}
	return phaseNames[0]
}

func fishName(code uint8) string {
	if int(code) < len(fishNames) {
		return fishNames[code]
	}
	return fishNames[0]
}

func powerUpName(code uint8) string {
	if int(code) < len(powerUpNames) {
		return powerUpNames[code]
	}
	return ""
}

type Wall struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Mine struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Size float64 `json:"size"`
}

type PowerUpState struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Size      float64 `json:"size"`
	Active    bool    `json:"active"`
	Remaining float64 `json:"remaining"`
	Type      string  `json:"type"`
}

// StatusEffect with an empty Type means "no effect" on the wire.
type StatusEffect struct {
	Type      string  `json:"type"`
	Remaining float64 `json:"remaining"`
	PlayerID  string  `json:"playerId,omitempty"`
}

type FishState struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Size      float64 `json:"size"`
	Alive     bool    `json:"alive"`
	Spawned   bool    `json:"spawned"`
	Type      string  `json:"type"`
	Direction int     `json:"direction"`
}

type PlayerState struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Score      int     `json:"score"`
	Ready      bool    `json:"ready"`
	Alive      bool    `json:"alive"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Size       float64 `json:"size"`
	Facing     int     `json:"facing"`
	Moving     bool    `json:"moving"`
	WalkCycle  float64 `json:"walkCycle"`
	StepAccum  float64 `json:"stepAccumulator"`
	Appearance string  `json:"appearance"`
	Disguise   string  `json:"disguise,omitempty"`
}

// GameState is the complete room snapshot as it travels in a full frame.
type GameState struct {
	ServerTime uint32         `json:"serverTime"`
	TickIndex  uint32         `json:"tickIndex"`
	RoomName   string         `json:"roomName"`
	Mode       string         `json:"mode"`
	Phase      string         `json:"phase"`
	Countdown  float64        `json:"countdown"`
	Remaining  float64        `json:"remaining"`
	HidePhase  string         `json:"hidePhase"`
	Golden     bool           `json:"goldenChainActive"`
	WinnerID   string         `json:"winnerId"`
	Message    string         `json:"message"`
	SeekerID   string         `json:"seekerId"`
	BombHolder string         `json:"bombHolder"`
	BombTimer  float64        `json:"bombTimer"`
	Status     *StatusEffect  `json:"statusEffect"`
	Fish       FishState      `json:"fish"`
	PowerUp    PowerUpState   `json:"powerUp"`
	PowerUps   []PowerUpState `json:"powerUps"`
	Walls      []Wall         `json:"walls"`
	Mines      []Mine         `json:"mines"`
	Players    []PlayerState  `json:"players"`
}

// Player returns the roster entry with the given id.
func (s *GameState) Player(id string) (PlayerState, bool) {
	for _, p := range s.Players {
		if p.ID == id {
			return p, true
		}
	}
	return PlayerState{}, false
}

// Clone deep-copies the slices and the status so the copy can be mutated.
func (s GameState) Clone() GameState {
	out := s
	if s.Status != nil {
		st := *s.Status
		out.Status = &st
	}
	out.PowerUps = append([]PowerUpState(nil), s.PowerUps...)
	out.Walls = append([]Wall(nil), s.Walls...)
	out.Mines = append([]Mine(nil), s.Mines...)
	out.Players = append([]PlayerState(nil), s.Players...)
	return out
}

type Kind uint8

const (
	KindFull Kind = iota
	KindPatch
)

// Message is one decoded server frame. State is set for full frames and
// Patch for patch frames.
type Message struct {
	Kind       Kind
	ServerTime uint32
	TickIndex  uint32
	State      *GameState
	Patch      *StatePatch
}
