package main

import (
	"log"

	"github.com/google/uuid"
)

// Proc tuning for hit-time modifiers and the per-tick capstone procs.
const (
	RicochetDamageFraction = 0.6
	ChainDamageFraction    = 0.4
	ChainRadius            = 220.0
	ChainMaxTargets        = 3

	AuraRadius        = 140.0
	AuraInterval      = 1.0 // seconds between aura pulses
	AuraDamagePerRank = 2.0

	SweepRadius          = 280.0
	SweepBaseInterval    = 8.0
	SweepIntervalPerRank = 1.0
	SweepDamagePerRank   = 6.0
)

// resolveHit applies a projectile hit. Malformed input — a shooter or
// victim that left the population mid-flight — is dropped with a
// diagnostic, never a panic; no combat error is fatal to the tick loop.
func (s *Sim) resolveHit(p *Projectile, victimAddr string) {
	victim := s.combatants[victimAddr]
	if victim == nil || !victim.Alive {
		return
	}
	attacker := s.combatants[p.Shooter]
	if attacker == nil {
		log.Printf("combat: dropping hit from departed shooter %s", p.Shooter)
		return
	}
	if !attacker.Alive {
		// Shooter died while the shot was in flight; ghosts deal no damage.
		return
	}

	out, crit := s.attackerDamage(attacker, victim, p.Damage)
	s.applyDamage(attacker, victim, out, crit)

	for _, mod := range hitModifiers {
		mod.apply(s, p, attacker, victim)
	}
}

// attackerDamage runs the outgoing half of the effect pipeline:
// base → flat damage bonuses → focus-fire stacks → execute → crit roll.
func (s *Sim) attackerDamage(attacker, victim *Combatant, base float64) (float64, bool) {
	e := attacker.Effects()

	// Focus-fire stacks build on consecutive hits against one target
	// and reset the moment the attacker switches.
	if attacker.FocusTarget == victim.Address {
		if attacker.FocusStacks < MaxFocusStacks {
			attacker.FocusStacks++
		}
	} else {
		attacker.FocusTarget = victim.Address
		attacker.FocusStacks = 0
	}

	dmg := base * (1 + e.DamagePct)
	dmg *= 1 + e.FocusPct*float64(attacker.FocusStacks)
	if victim.MaxHealth > 0 && victim.Health/victim.MaxHealth < ExecuteHealthThreshold {
		dmg *= 1 + e.ExecutePct
	}
	crit := false
	if e.CritChance > 0 && s.rng.Float64() < e.CritChance {
		dmg *= 1 + BaseCritBonus + e.CritBonusPct
		crit = true
	}
	return dmg, crit
}

// applyDamage runs the incoming half of the pipeline — armor, then the
// health subtraction clamped to [0, max], then lifesteal credited from
// the post-mitigation amount — and handles death.
func (s *Sim) applyDamage(attacker, victim *Combatant, out float64, crit bool) {
	if victim == nil || !victim.Alive || out <= 0 {
		return
	}
	mitigated := out * (1 - victim.Effects().ArmorPct)
	victim.Health -= mitigated
	if victim.Health < 0 {
		victim.Health = 0
	}

	s.damageEvents = append(s.damageEvents, DamageEvent{
		ID:       uuid.NewString(),
		Attacker: attacker.Address,
		Victim:   victim.Address,
		Amount:   mitigated,
		Crit:     crit,
		Tick:     s.tick,
	})

	if attacker.Alive {
		e := attacker.Effects()
		if e.LifestealPct > 0 {
			attacker.Health += mitigated * e.LifestealPct
			if attacker.Health > attacker.MaxHealth {
				attacker.Health = attacker.MaxHealth
			}
		}
	}

	if victim.Health <= 0 {
		s.kill(attacker, victim)
	}
}

// kill finalizes a death: ghost state, kill/death counters, XP for
// both sides, on-kill healing, the death event, and the kill feed.
func (s *Sim) kill(killer, victim *Combatant) {
	victimLevel := victim.Level
	victim.die(s.now)

	killer.Kills++
	killer.sessionKills++
	if killer.FocusTarget == victim.Address {
		killer.FocusTarget = ""
		killer.FocusStacks = 0
	}

	applyXP(killer, killXP(victimLevel))
	applyXP(victim, DeathConsolationXP)

	if heal := killer.Effects().OnKillHealPct; heal > 0 && killer.Alive {
		killer.Health += killer.MaxHealth * heal
		if killer.Health > killer.MaxHealth {
			killer.Health = killer.MaxHealth
		}
	}

	s.deathEvents = append(s.deathEvents, DeathEvent{
		ID:     uuid.NewString(),
		Killer: killer.Address,
		Victim: victim.Address,
		Tick:   s.tick,
	})
	s.feed = append(s.feed, KillRecord{
		Killer: killer.Address,
		Victim: victim.Address,
		Tick:   s.tick,
	})
	if len(s.feed) > KillFeedCapacity {
		s.feed = s.feed[len(s.feed)-KillFeedCapacity:]
	}

	s.dirty[killer.Address] = true
	s.dirty[victim.Address] = true
}

// hitModifier is one optional behavior consulted in order after a hit
// resolves. Like spawn modifiers, new talents extend the table.
type hitModifier struct {
	name  string
	apply func(s *Sim, p *Projectile, attacker, victim *Combatant)
}

var hitModifiers = []hitModifier{
	{
		name: "ricochet",
		apply: func(s *Sim, p *Projectile, attacker, victim *Combatant) {
			e := attacker.Effects()
			if e.RicochetChance <= 0 || s.rng.Float64() >= e.RicochetChance {
				return
			}
			vb := s.reg.Get(victim.Address)
			if vb == nil {
				return
			}
			// Bounce from the victim toward the nearest other target.
			next := s.nearestTargetExcluding(victim.Address, attacker.Address)
			if next == nil {
				return
			}
			bounce := NewProjectile(vb, next.X, next.Y, p.Damage*RicochetDamageFraction, s.rng)
			if bounce == nil {
				return
			}
			bounce.Shooter = attacker.Address
			bounce.Target = next.Address
			bounce.Color = p.Color
			s.addProjectile(bounce)
		},
	},
	{
		name: "chain",
		apply: func(s *Sim, p *Projectile, attacker, victim *Combatant) {
			e := attacker.Effects()
			if e.ChainChance <= 0 || s.rng.Float64() >= e.ChainChance {
				return
			}
			vb := s.reg.Get(victim.Address)
			if vb == nil {
				return
			}
			// Arcs instantly to nearby targets around the victim.
			hit := 0
			for _, addr := range s.reg.Order() {
				if hit >= ChainMaxTargets {
					break
				}
				if addr == victim.Address || addr == attacker.Address {
					continue
				}
				c := s.combatants[addr]
				if c == nil || !c.Alive {
					continue
				}
				b := s.reg.Get(addr)
				if Distance(vb.X, vb.Y, b.X, b.Y) > ChainRadius {
					continue
				}
				s.applyDamage(attacker, c, p.Damage*ChainDamageFraction*(1+attacker.Effects().DamagePct), false)
				hit++
			}
		},
	},
}

// nearestTargetExcluding is nearestTarget with an extra excluded
// address, used by ricochet bounces.
func (s *Sim) nearestTargetExcluding(from, exclude string) *Bubble {
	fb := s.reg.Get(from)
	if fb == nil {
		return nil
	}
	var best *Bubble
	bestDist := 0.0
	for _, addr := range s.reg.Order() {
		if addr == from || addr == exclude {
			continue
		}
		c := s.combatants[addr]
		if c == nil || !c.Alive {
			continue
		}
		b := s.reg.Get(addr)
		d := Distance(fb.X, fb.Y, b.X, b.Y)
		if best == nil || d < bestDist {
			best = b
			bestDist = d
		}
	}
	return best
}

// stepLifecycle handles respawns, regeneration, and the per-tick
// capstone procs (orbiting aura, periodic sweep).
func (s *Sim) stepLifecycle(dt float64) {
	for _, addr := range s.reg.Order() {
		c := s.combatants[addr]
		if c == nil {
			continue
		}
		if !c.Alive {
			if s.now >= c.GhostUntil {
				c.respawn()
			}
			continue
		}

		e := c.Effects()

		// Regeneration is independent of combat.
		if e.RegenPerSec > 0 && c.Health < c.MaxHealth {
			c.Health += e.RegenPerSec * dt
			if c.Health > c.MaxHealth {
				c.Health = c.MaxHealth
			}
		}

		if e.AuraRank > 0 && s.now-c.lastAura >= AuraInterval {
			c.lastAura = s.now
			s.areaDamage(c, AuraRadius, AuraDamagePerRank*float64(e.AuraRank))
		}

		if e.SweepRank > 0 {
			interval := SweepBaseInterval - SweepIntervalPerRank*float64(e.SweepRank)
			if s.now-c.lastSweep >= interval {
				c.lastSweep = s.now
				s.areaDamage(c, SweepRadius, SweepDamagePerRank*float64(e.SweepRank))
			}
		}
	}
}

// areaDamage hits every alive combatant within radius of the owner.
func (s *Sim) areaDamage(owner *Combatant, radius, damage float64) {
	ob := s.reg.Get(owner.Address)
	if ob == nil {
		return
	}
	for _, addr := range s.reg.Order() {
		if addr == owner.Address {
			continue
		}
		c := s.combatants[addr]
		if c == nil || !c.Alive {
			continue
		}
		b := s.reg.Get(addr)
		if Distance(ob.X, ob.Y, b.X, b.Y) > radius {
			continue
		}
		s.applyDamage(owner, c, damage*(1+owner.Effects().DamagePct), false)
	}
}
