package main

// Cannon capstone tuning (firepower tree).
const (
	CannonBaseInterval    = 10.0 // seconds, shortened per rank
	CannonIntervalPerRank = 1.5
	CannonDamageMult      = 2.0
	CannonDamagePerRank   = 0.5
)

// stepProjectiles advances every in-flight projectile, retargets
// homing shots, and resolves hits. A projectile is destroyed on hit,
// on progress > 1, or on leaving the arena with margin.
func (s *Sim) stepProjectiles(dt float64) {
	// Hit modifiers may spawn new projectiles (ricochet bounces) while
	// this runs, so the live slice is detached before iterating.
	active := s.projectiles
	s.projectiles = make([]*Projectile, 0, len(active))
	for _, p := range active {
		if p.Homing {
			if tb := s.reg.Get(p.Target); tb != nil {
				if tc := s.combatants[p.Target]; tc != nil && tc.Alive {
					p.Retarget(tb.X, tb.Y)
				}
			}
		}
		if !p.Advance(dt) {
			continue // expired or out of bounds, no event
		}
		if victim := s.firstHit(p); victim != "" {
			s.resolveHit(p, victim)
			continue
		}
		s.addProjectile(p)
	}
}

// addProjectile appends a projectile, enforcing the global cap.
func (s *Sim) addProjectile(p *Projectile) {
	if len(s.projectiles) >= maxProjectiles {
		return
	}
	s.projectiles = append(s.projectiles, p)
}

// firstHit returns the address of the first valid combatant the
// projectile touches, in stable registry order. A projectile never
// hits its own shooter and never hits ghosts.
func (s *Sim) firstHit(p *Projectile) string {
	for _, addr := range s.reg.Order() {
		if addr == p.Shooter {
			continue
		}
		c := s.combatants[addr]
		if c == nil || !c.Alive {
			continue
		}
		if p.Hits(s.reg.Get(addr)) {
			return addr
		}
	}
	return ""
}

// stepTargeting fires for every alive combatant whose cooldown has
// elapsed. Target is the nearest alive non-self combatant; distance
// ties keep the first-encountered address so behavior is reproducible.
func (s *Sim) stepTargeting() {
	for _, addr := range s.reg.Order() {
		b := s.reg.Get(addr)
		c := s.combatantFor(addr)
		if !c.Alive {
			continue
		}
		e := c.Effects()
		cooldown := BaseFireCooldown / (1 + e.FireRatePct)
		if s.now-c.LastFired < cooldown {
			continue
		}
		target := s.nearestTarget(addr)
		if target == nil {
			continue
		}
		c.LastFired = s.now
		s.fireAt(b, c, e, target)
	}
}

// nearestTarget returns the closest alive combatant's bubble other
// than self, or nil when nobody is targetable.
func (s *Sim) nearestTarget(self string) *Bubble {
	sb := s.reg.Get(self)
	var best *Bubble
	bestDist := 0.0
	for _, addr := range s.reg.Order() {
		if addr == self {
			continue
		}
		c := s.combatants[addr]
		if c == nil || !c.Alive {
			continue
		}
		b := s.reg.Get(addr)
		d := Distance(sb.X, sb.Y, b.X, b.Y)
		if best == nil || d < bestDist {
			best = b
			bestDist = d
		}
	}
	return best
}

// spawnModifier is one optional behavior consulted in order at shot
// spawn time. New talents extend this table instead of branching
// inside the fire loop.
type spawnModifier struct {
	name  string
	apply func(s *Sim, shooter *Bubble, c *Combatant, e *EffectSet, target *Bubble, shots []*Projectile) []*Projectile
}

var spawnModifiers = []spawnModifier{
	{
		name: "multishot",
		apply: func(s *Sim, shooter *Bubble, c *Combatant, e *EffectSet, target *Bubble, shots []*Projectile) []*Projectile {
			if e.MultishotChance <= 0 || s.rng.Float64() >= e.MultishotChance {
				return shots
			}
			extra := NewProjectile(shooter, target.X, target.Y, BaseProjectileDamage, s.rng)
			if extra != nil {
				extra.Target = target.Address
				shots = append(shots, extra)
			}
			return shots
		},
	},
	{
		name: "cannon",
		apply: func(s *Sim, shooter *Bubble, c *Combatant, e *EffectSet, target *Bubble, shots []*Projectile) []*Projectile {
			if e.CannonRank <= 0 {
				return shots
			}
			interval := CannonBaseInterval - CannonIntervalPerRank*float64(e.CannonRank)
			if s.now-c.lastCannon < interval {
				return shots
			}
			dmg := BaseProjectileDamage * (CannonDamageMult + CannonDamagePerRank*float64(e.CannonRank))
			shot := NewProjectile(shooter, target.X, target.Y, dmg, s.rng)
			if shot != nil {
				shot.Target = target.Address
				shot.Homing = true
				c.lastCannon = s.now
				shots = append(shots, shot)
			}
			return shots
		},
	},
}

// fireAt spawns the base shot plus whatever the spawn modifiers add.
func (s *Sim) fireAt(shooter *Bubble, c *Combatant, e *EffectSet, target *Bubble) {
	base := NewProjectile(shooter, target.X, target.Y, BaseProjectileDamage, s.rng)
	if base == nil {
		return
	}
	base.Target = target.Address

	shots := []*Projectile{base}
	for _, mod := range spawnModifiers {
		shots = mod.apply(s, shooter, c, e, target, shots)
	}
	for _, p := range shots {
		s.addProjectile(p)
	}
}
