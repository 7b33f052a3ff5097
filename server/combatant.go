package main

const (
	BaseMaxHealth  = 100.0
	HealthPerLevel = 2.0 // flat max health per level above 1

	GhostBaseDuration = 4.0 // seconds
	GhostPerLevel     = 0.6 // extra ghost seconds per level

	MaxLevel = 100
)

// Combatant is the combat-relevant state attached to a bubble. Created
// lazily the first time an address participates in a simulation tick.
type Combatant struct {
	Address    string
	Health     float64
	MaxHealth  float64
	Alive      bool
	GhostUntil float64 // sim seconds; meaningful only while not alive
	LastFired  float64

	Kills  int
	Deaths int
	Level  int
	XP     int
	Points int // unspent talent points

	Talents map[TalentID]int

	// Focus-fire bookkeeping (brawler tree): consecutive hits against
	// the same target build stacks, switching targets resets them.
	FocusTarget string
	FocusStacks int

	lastAura   float64
	lastSweep  float64
	lastCannon float64

	// In-session progression, re-applied on top of a late ledger load.
	sessionXP     int
	sessionKills  int
	sessionDeaths int

	effects      *EffectSet
	effectsDirty bool
}

// NewCombatant creates a level-1 combatant at full health.
func NewCombatant(address string) *Combatant {
	c := &Combatant{
		Address:      address,
		Alive:        true,
		Level:        1,
		Talents:      make(map[TalentID]int),
		effectsDirty: true,
	}
	c.MaxHealth = c.Effects().MaxHealth(c.Level)
	c.Health = c.MaxHealth
	return c
}

// Effects returns the cached effect set, recomputing it if progression
// changed since the last call.
func (c *Combatant) Effects() *EffectSet {
	if c.effectsDirty || c.effects == nil {
		c.effects = computeEffects(c)
		c.effectsDirty = false
	}
	return c.effects
}

// invalidateEffects marks the cache stale and refreshes max health,
// clamping current health into the new range.
func (c *Combatant) invalidateEffects() {
	c.effectsDirty = true
	c.MaxHealth = c.Effects().MaxHealth(c.Level)
	if c.Health > c.MaxHealth {
		c.Health = c.MaxHealth
	}
}

// ghostDuration grows with level to balance late-game respawn pressure.
func ghostDuration(level int) float64 {
	return GhostBaseDuration + GhostPerLevel*float64(level)
}

// die puts the combatant into the ghost state.
func (c *Combatant) die(now float64) {
	c.Health = 0
	c.Alive = false
	c.GhostUntil = now + ghostDuration(c.Level)
	c.Deaths++
	c.sessionDeaths++
	c.FocusTarget = ""
	c.FocusStacks = 0
}

// respawn clears the ghost state and resets health to the max for the
// combatant's current level.
func (c *Combatant) respawn() {
	c.Alive = true
	c.GhostUntil = 0
	c.MaxHealth = c.Effects().MaxHealth(c.Level)
	c.Health = c.MaxHealth
}

// spentPoints returns the total talent ranks allocated.
func (c *Combatant) spentPoints() int {
	total := 0
	for _, rank := range c.Talents {
		total += rank
	}
	return total
}

// capstoneCount returns how many distinct capstone talents have rank > 0.
func (c *Combatant) capstoneCount() int {
	n := 0
	for id, rank := range c.Talents {
		if rank <= 0 {
			continue
		}
		if def, ok := talentByID[id]; ok && def.Capstone {
			n++
		}
	}
	return n
}
