package main

import (
	"math"
	"math/rand"
)

const (
	ArenaWidth  = 1920.0
	ArenaHeight = 1080.0

	MinBubbleRadius = 12.0
	MaxBubbleRadius = 72.0

	SpawnSpeedMin = 30.0
	SpawnSpeedMax = 80.0

	// A holder must be absent from this many consecutive population
	// refreshes before its bubble is removed. One missed refresh is
	// treated as feed flicker, not a real exit.
	removeAfterMisses = 2
)

// Holder is one entry of a population refresh from the external
// holder feed. Membership is authoritative; nothing else is.
type Holder struct {
	Address string  `json:"address"`
	Percent float64 `json:"percent"`
}

// Bubble is the physical entity for one holder address.
type Bubble struct {
	Address string
	Percent float64
	Radius  float64
	X, Y    float64
	VX, VY  float64
	Color   string
	Tier    string

	misses int // consecutive refreshes without this address
}

// Holder tiers by ownership percentage, cosmetic only.
var tierTable = []struct {
	minPct float64
	name   string
	color  string
}{
	{5.0, "whale", "#7b5cff"},
	{1.0, "shark", "#ff8c42"},
	{0.1, "fish", "#3bb3ff"},
	{0.0, "shrimp", "#57d98f"},
}

func tierForPercent(pct float64) (string, string) {
	for _, t := range tierTable {
		if pct >= t.minPct {
			return t.name, t.color
		}
	}
	last := tierTable[len(tierTable)-1]
	return last.name, last.color
}

// radiusForPercent maps ownership share to bubble radius. Square root
// keeps whales large without letting them dominate the arena.
func radiusForPercent(pct float64) float64 {
	if pct < 0 {
		pct = 0
	}
	r := MinBubbleRadius + math.Sqrt(pct)*18.0
	return Clamp(r, MinBubbleRadius, MaxBubbleRadius)
}

// Registry owns the bubble set. Iteration order is the insertion order
// of addresses, kept stable so per-tick behavior is reproducible.
type Registry struct {
	bubbles map[string]*Bubble
	order   []string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{bubbles: make(map[string]*Bubble)}
}

// Get returns the bubble for an address, or nil
func (r *Registry) Get(address string) *Bubble {
	return r.bubbles[address]
}

// Len returns the number of tracked bubbles
func (r *Registry) Len() int {
	return len(r.bubbles)
}

// Each calls fn for every bubble in stable insertion order.
func (r *Registry) Each(fn func(*Bubble)) {
	for _, addr := range r.order {
		fn(r.bubbles[addr])
	}
}

// Order returns the stable address iteration order. Callers must not
// mutate the returned slice.
func (r *Registry) Order() []string {
	return r.order
}

// Reconcile applies a population refresh. Existing bubbles keep their
// position and velocity; genuinely new addresses spawn at a random
// point with a random drift velocity. Addresses absent from two
// consecutive refreshes are removed for real.
func (r *Registry) Reconcile(holders []Holder, rng *rand.Rand) (added, removed []string) {
	seen := make(map[string]bool, len(holders))
	for _, h := range holders {
		if h.Address == "" {
			continue
		}
		seen[h.Address] = true
		if b, ok := r.bubbles[h.Address]; ok {
			b.misses = 0
			b.Percent = h.Percent
			b.Radius = radiusForPercent(h.Percent)
			b.Tier, b.Color = tierForPercent(h.Percent)
			continue
		}
		b := r.spawn(h, rng)
		r.bubbles[h.Address] = b
		r.order = append(r.order, h.Address)
		added = append(added, h.Address)
	}

	for _, addr := range r.order {
		if seen[addr] {
			continue
		}
		b := r.bubbles[addr]
		b.misses++
		if b.misses >= removeAfterMisses {
			removed = append(removed, addr)
		}
	}
	for _, addr := range removed {
		delete(r.bubbles, addr)
	}
	if len(removed) > 0 {
		kept := r.order[:0]
		for _, addr := range r.order {
			if _, ok := r.bubbles[addr]; ok {
				kept = append(kept, addr)
			}
		}
		r.order = kept
	}
	return added, removed
}

// spawn creates a bubble at a random in-bounds position with a random
// drift direction.
func (r *Registry) spawn(h Holder, rng *rand.Rand) *Bubble {
	radius := radiusForPercent(h.Percent)
	tier, color := tierForPercent(h.Percent)
	angle := rng.Float64() * 2 * math.Pi
	speed := SpawnSpeedMin + rng.Float64()*(SpawnSpeedMax-SpawnSpeedMin)
	return &Bubble{
		Address: h.Address,
		Percent: h.Percent,
		Radius:  radius,
		X:       radius + rng.Float64()*(ArenaWidth-2*radius),
		Y:       radius + rng.Float64()*(ArenaHeight-2*radius),
		VX:      math.Cos(angle) * speed,
		VY:      math.Sin(angle) * speed,
		Color:   color,
		Tier:    tier,
	}
}
