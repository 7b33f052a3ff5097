package main

import "github.com/vmihailenco/msgpack/v5"

// DamageEvent is emitted once per resolved hit and consumed by the
// snapshot and the ledger archive. Not retained past its tick.
type DamageEvent struct {
	ID       string  `json:"id"`
	Attacker string  `json:"atk"`
	Victim   string  `json:"vic"`
	Amount   float64 `json:"amt"`
	Crit     bool    `json:"crit,omitempty"`
	Tick     uint64  `json:"tick"`
}

// DeathEvent is emitted once per death.
type DeathEvent struct {
	ID     string `json:"id"`
	Killer string `json:"killer"`
	Victim string `json:"victim"`
	Tick   uint64 `json:"tick"`
}

// KillRecord is one kill feed entry; the feed keeps the last
// KillFeedCapacity entries.
type KillRecord struct {
	Killer string `json:"killer"`
	Victim string `json:"victim"`
	Tick   uint64 `json:"tick"`
}

// BubbleView is the per-entity slice of a snapshot.
type BubbleView struct {
	Address   string  `json:"addr"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	VX        float64 `json:"vx"`
	VY        float64 `json:"vy"`
	Radius    float64 `json:"r"`
	Color     string  `json:"c"`
	Tier      string  `json:"tier"`
	Health    float64 `json:"hp"`
	MaxHealth float64 `json:"mhp"`
	Alive     bool    `json:"a"`
	GhostLeft float64 `json:"ghost,omitempty"` // seconds until respawn
	Level     int     `json:"lvl"`
	Kills     int     `json:"k"`
	Deaths    int     `json:"d"`
	Points    int     `json:"pts"`
}

// ProjectileView carries enough to redraw the full Bézier curve.
type ProjectileView struct {
	ID    string  `json:"id"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	OX    float64 `json:"ox"`
	OY    float64 `json:"oy"`
	CX    float64 `json:"cx"`
	CY    float64 `json:"cy"`
	TX    float64 `json:"tx"`
	TY    float64 `json:"ty"`
	T     float64 `json:"t"`
	Color string  `json:"c"`
	Owner string  `json:"o"`
}

// PulseView is a cosmetic transaction burst.
type PulseView struct {
	Kind string  `json:"kind"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Age  float64 `json:"age"`
}

// Snapshot is the immutable per-tick view handed to consumers. A new
// one is produced every tick; consumers must never mutate it.
type Snapshot struct {
	Tick        uint64           `json:"tick"`
	Now         float64          `json:"now"`
	Bubbles     []BubbleView     `json:"bubbles"`
	Projectiles []ProjectileView `json:"projectiles"`
	Feed        []KillRecord     `json:"feed"`
	Damage      []DamageEvent    `json:"damage,omitempty"`
	Deaths      []DeathEvent     `json:"deaths,omitempty"`
	Pulses      []PulseView      `json:"pulses,omitempty"`
}

// Encode serializes the snapshot for the binary broadcast path.
func (snap *Snapshot) Encode() ([]byte, error) {
	return msgpack.Marshal(snap)
}

// buildSnapshot copies the live state into a fresh immutable view.
// Caller holds the sim lock.
func (s *Sim) buildSnapshot() *Snapshot {
	snap := &Snapshot{
		Tick:        s.tick,
		Now:         s.now,
		Bubbles:     make([]BubbleView, 0, s.reg.Len()),
		Projectiles: make([]ProjectileView, 0, len(s.projectiles)),
		Feed:        append([]KillRecord(nil), s.feed...),
		Damage:      append([]DamageEvent(nil), s.damageEvents...),
		Deaths:      append([]DeathEvent(nil), s.deathEvents...),
	}

	s.reg.Each(func(b *Bubble) {
		view := BubbleView{
			Address: b.Address,
			X:       b.X,
			Y:       b.Y,
			VX:      b.VX,
			VY:      b.VY,
			Radius:  b.Radius,
			Color:   b.Color,
			Tier:    b.Tier,
		}
		if c := s.combatants[b.Address]; c != nil {
			view.Health = c.Health
			view.MaxHealth = c.MaxHealth
			view.Alive = c.Alive
			view.Level = c.Level
			view.Kills = c.Kills
			view.Deaths = c.Deaths
			view.Points = c.Points
			if !c.Alive && c.GhostUntil > s.now {
				view.GhostLeft = c.GhostUntil - s.now
			}
		}
		snap.Bubbles = append(snap.Bubbles, view)
	})

	for _, p := range s.projectiles {
		snap.Projectiles = append(snap.Projectiles, ProjectileView{
			ID:    p.ID,
			X:     p.X,
			Y:     p.Y,
			OX:    p.OX,
			OY:    p.OY,
			CX:    p.CX,
			CY:    p.CY,
			TX:    p.TX,
			TY:    p.TY,
			T:     p.T,
			Color: p.Color,
			Owner: p.Shooter,
		})
	}

	for _, pulse := range s.pulses {
		snap.Pulses = append(snap.Pulses, PulseView{
			Kind: pulse.Kind,
			X:    pulse.X,
			Y:    pulse.Y,
			Age:  s.now - pulse.Born,
		})
	}

	return snap
}
