package protocol

// PlayerPatch carries the changed attributes of one roster entry. Nil fields
// are absent from the frame.
type PlayerPatch struct {
	ID         string
	Name       *string
	Ready      *bool
	Alive      *bool
	X          *float64
	Y          *float64
	Size       *float64
	Facing     *int
	Moving     *bool
	WalkCycle  *float64
	StepAccum  *float64
	Score      *int
	Appearance *string
	Disguise   *string
}

// StatePatch is the delta between two broadcasts. Walls, mines and power-ups
// are pointers to slices so that "now empty" differs from "unchanged". A
// present Status with an empty Type clears the effect.
type StatePatch struct {
	Phase      *string
	Countdown  *float64
	Remaining  *float64
	Message    *string
	WinnerID   *string
	Golden     *bool
	Status     *StatusEffect
	Fish       *FishState
	PowerUp    *PowerUpState
	PowerUps   *[]PowerUpState
	SeekerID   *string
	HidePhase  *string
	Walls      *[]Wall
	Mines      *[]Mine
	Players    []PlayerPatch
	Removed    []string
	Mode       *string
	BombHolder *string
	BombTimer  *float64
}

// field is one entry of a flag table: which bit of which flag byte marks it
// and how to move it on and off the wire.
type field[T any] struct {
	flag    int
	bit     uint8
	present func(*T) bool
	encode  func(*writer, *T)
	decode  func(*reader, *T)
}

func strField[T any](flag int, bit uint8, get func(*T) **string) field[T] {
	return field[T]{
		flag: flag, bit: bit,
		present: func(t *T) bool { return *get(t) != nil },
		encode:  func(w *writer, t *T) { w.str(**get(t)) },
		decode:  func(r *reader, t *T) { v := r.str(); *get(t) = &v },
	}
}

func f32Field[T any](flag int, bit uint8, get func(*T) **float64) field[T] {
	return field[T]{
		flag: flag, bit: bit,
		present: func(t *T) bool { return *get(t) != nil },
		encode:  func(w *writer, t *T) { w.f32(**get(t)) },
		decode:  func(r *reader, t *T) { v := r.f32(); *get(t) = &v },
	}
}

func boolField[T any](flag int, bit uint8, get func(*T) **bool) field[T] {
	return field[T]{
		flag: flag, bit: bit,
		present: func(t *T) bool { return *get(t) != nil },
		encode:  func(w *writer, t *T) { w.boolean(**get(t)) },
		decode:  func(r *reader, t *T) { v := r.boolean(); *get(t) = &v },
	}
}

// patchFields lists the state patch fields in stream order. The bit layout
// is shared with the browser client and must not change.
var patchFields = []field[StatePatch]{
	strField(0, 0, func(p *StatePatch) **string { return &p.Phase }),
	f32Field(0, 1, func(p *StatePatch) **float64 { return &p.Countdown }),
	f32Field(0, 2, func(p *StatePatch) **float64 { return &p.Remaining }),
	strField(0, 3, func(p *StatePatch) **string { return &p.Message }),
	strField(0, 4, func(p *StatePatch) **string { return &p.WinnerID }),
	boolField(0, 5, func(p *StatePatch) **bool { return &p.Golden }),
	{
		flag: 0, bit: 6,
		present: func(p *StatePatch) bool { return p.Status != nil },
		encode:  func(w *writer, p *StatePatch) { writeStatus(w, p.Status) },
		decode:  func(r *reader, p *StatePatch) { p.Status = readStatus(r) },
	},
	{
		flag: 0, bit: 7,
		present: func(p *StatePatch) bool { return p.Fish != nil },
		encode:  func(w *writer, p *StatePatch) { writeFish(w, *p.Fish) },
		decode:  func(r *reader, p *StatePatch) { f := readFish(r); p.Fish = &f },
	},
	{
		flag: 1, bit: 0,
		present: func(p *StatePatch) bool { return p.PowerUp != nil },
		encode:  func(w *writer, p *StatePatch) { writePowerUp(w, *p.PowerUp) },
		decode:  func(r *reader, p *StatePatch) { pu := readPowerUp(r); p.PowerUp = &pu },
	},
	{
		flag: 2, bit: 0,
		present: func(p *StatePatch) bool { return p.PowerUps != nil },
		encode:  func(w *writer, p *StatePatch) { writePowerUps(w, *p.PowerUps) },
		decode:  func(r *reader, p *StatePatch) { l := readPowerUps(r); p.PowerUps = &l },
	},
	strField(2, 1, func(p *StatePatch) **string { return &p.SeekerID }),
	strField(2, 2, func(p *StatePatch) **string { return &p.HidePhase }),
	{
		flag: 1, bit: 1,
		present: func(p *StatePatch) bool { return p.Walls != nil },
		encode:  func(w *writer, p *StatePatch) { writeWalls(w, *p.Walls) },
		decode:  func(r *reader, p *StatePatch) { l := readWalls(r); p.Walls = &l },
	},
	{
		flag: 1, bit: 2,
		present: func(p *StatePatch) bool { return p.Mines != nil },
		encode:  func(w *writer, p *StatePatch) { writeMines(w, *p.Mines) },
		decode:  func(r *reader, p *StatePatch) { l := readMines(r); p.Mines = &l },
	},
	{
		flag: 1, bit: 3,
		present: func(p *StatePatch) bool { return len(p.Players) > 0 },
		encode: func(w *writer, p *StatePatch) {
			n := min(len(p.Players), MaxPlayers)
			w.u8(uint8(n))
			for i := range p.Players[:n] {
				encodeFields(w, playerFields, &p.Players[i], func() { w.str(p.Players[i].ID) })
			}
		},
		decode: func(r *reader, p *StatePatch) {
			n := int(r.u8())
			for i := 0; i < n && r.remaining() > 0; i++ {
				var pp PlayerPatch
				pp.ID = r.str()
				decodeFields(r, playerFields, &pp)
				p.Players = append(p.Players, pp)
			}
		},
	},
	{
		flag: 1, bit: 4,
		present: func(p *StatePatch) bool { return len(p.Removed) > 0 },
		encode: func(w *writer, p *StatePatch) {
			n := min(len(p.Removed), MaxPlayers)
			w.u8(uint8(n))
			for _, id := range p.Removed[:n] {
				w.str(id)
			}
		},
		decode: func(r *reader, p *StatePatch) {
			n := int(r.u8())
			for i := 0; i < n && r.remaining() > 0; i++ {
				p.Removed = append(p.Removed, r.str())
			}
		},
	},
	strField(1, 5, func(p *StatePatch) **string { return &p.Mode }),
	strField(1, 6, func(p *StatePatch) **string { return &p.BombHolder }),
	f32Field(1, 7, func(p *StatePatch) **float64 { return &p.BombTimer }),
}

var playerFields = []field[PlayerPatch]{
	strField(0, 0, func(p *PlayerPatch) **string { return &p.Name }),
	boolField(0, 1, func(p *PlayerPatch) **bool { return &p.Ready }),
	boolField(0, 2, func(p *PlayerPatch) **bool { return &p.Alive }),
	f32Field(0, 3, func(p *PlayerPatch) **float64 { return &p.X }),
	f32Field(0, 4, func(p *PlayerPatch) **float64 { return &p.Y }),
	f32Field(0, 5, func(p *PlayerPatch) **float64 { return &p.Size }),
	{
		flag: 0, bit: 6,
		present: func(p *PlayerPatch) bool { return p.Facing != nil },
		encode:  func(w *writer, p *PlayerPatch) { w.i16(int16(*p.Facing)) },
		decode:  func(r *reader, p *PlayerPatch) { v := int(r.i16()); p.Facing = &v },
	},
	boolField(0, 7, func(p *PlayerPatch) **bool { return &p.Moving }),
	f32Field(1, 0, func(p *PlayerPatch) **float64 { return &p.WalkCycle }),
	f32Field(1, 1, func(p *PlayerPatch) **float64 { return &p.StepAccum }),
	{
		flag: 1, bit: 2,
		present: func(p *PlayerPatch) bool { return p.Score != nil },
		encode:  func(w *writer, p *PlayerPatch) { w.u32(uint32(*p.Score)) },
		decode:  func(r *reader, p *PlayerPatch) { v := int(r.u32()); p.Score = &v },
	},
	{
		flag: 1, bit: 3,
		present: func(p *PlayerPatch) bool { return p.Appearance != nil },
		encode:  func(w *writer, p *PlayerPatch) { w.str(clipAppearance(*p.Appearance)) },
		decode:  func(r *reader, p *PlayerPatch) { v := r.str(); p.Appearance = &v },
	},
	strField(1, 4, func(p *PlayerPatch) **string { return &p.Disguise }),
}

// encodeFields writes the flag bytes followed by every present field.
// header, when set, runs before the flags.
func encodeFields[T any](w *writer, fields []field[T], v *T, header func()) {
	nflags := 0
	for _, f := range fields {
		nflags = max(nflags, f.flag+1)
	}
	flags := make([]uint8, nflags)
	for _, f := range fields {
		if f.present(v) {
			flags[f.flag] |= 1 << f.bit
		}
	}
	if header != nil {
		header()
	}
	for _, b := range flags {
		w.u8(b)
	}
	for _, f := range fields {
		if flags[f.flag]&(1<<f.bit) != 0 {
			f.encode(w, v)
		}
	}
}

func decodeFields[T any](r *reader, fields []field[T], v *T) {
	nflags := 0
	for _, f := range fields {
		nflags = max(nflags, f.flag+1)
	}
	flags := make([]uint8, nflags)
	for i := range flags {
		flags[i] = r.u8()
	}
	for _, f := range fields {
		if flags[f.flag]&(1<<f.bit) != 0 {
			f.decode(r, v)
		}
	}
}

// EncodePatch writes a patch frame. A nil patch encodes with every flag
// cleared.
func EncodePatch(p *StatePatch, serverTime, tick uint32) []byte {
	if p == nil {
		p = &StatePatch{}
	}
	w := &writer{}
	w.u8(TypePatch)
	w.u32(serverTime)
	w.u32(tick)
	encodeFields(w, patchFields, p, nil)
	return w.bytes()
}

func readPatch(r *reader) *StatePatch {
	p := &StatePatch{}
	decodeFields(r, patchFields, p)
	return p
}

// Empty reports whether the patch carries no field at all.
func (p *StatePatch) Empty() bool {
	if p == nil {
		return true
	}
	for _, f := range patchFields {
		if f.present(p) {
			return false
		}
	}
	return true
}
