package main

import (
	"math"
	"testing"
)

// addCombatant puts a bubble and its combatant directly into the sim at
// a fixed position, bypassing the holder feed.
func addCombatant(s *Sim, addr string, x, y float64) *Combatant {
	addBubble(s.reg, addr, x, y, 20)
	c := NewCombatant(addr)
	s.combatants[addr] = c
	return c
}

func TestFreshCombatantBaseline(t *testing.T) {
	c := NewCombatant("a")
	if c.Level != 1 || c.Points != 0 {
		t.Errorf("fresh combatant should be level 1 with no points, got %d/%d", c.Level, c.Points)
	}
	if c.MaxHealth != BaseMaxHealth {
		t.Errorf("level 1 with no talents must have exactly %v max health, got %v", BaseMaxHealth, c.MaxHealth)
	}
	if c.Effects().DamagePct != 0 {
		t.Errorf("level 1 should have no damage bonus, got %v", c.Effects().DamagePct)
	}
}

func TestFortyTinyHits(t *testing.T) {
	s := NewSim(1, nil)
	attacker := addCombatant(s, "a", 100, 100)
	victim := addCombatant(s, "b", 300, 100)

	for i := 0; i < 40; i++ {
		dmg, crit := s.attackerDamage(attacker, victim, 0.1)
		s.applyDamage(attacker, victim, dmg, crit)
	}

	if math.Abs(victim.Health-96.0) > 1e-9 {
		t.Errorf("expected health 96.0 after 40 hits of 0.1, got %v", victim.Health)
	}
	if !victim.Alive {
		t.Error("victim should still be alive")
	}
	if len(s.damageEvents) != 40 {
		t.Errorf("expected 40 damage events, got %d", len(s.damageEvents))
	}
}

func TestArmorMitigation(t *testing.T) {
	s := NewSim(1, nil)
	attacker := addCombatant(s, "a", 100, 100)
	victim := addCombatant(s, "b", 300, 100)
	victim.Talents["tank_hardened"] = 5 // 15% damage reduction
	victim.invalidateEffects()

	s.applyDamage(attacker, victim, 50, false)

	want := victim.MaxHealth - 50*(1-0.15)
	if math.Abs(victim.Health-want) > 1e-9 {
		t.Errorf("expected health %v after mitigated hit, got %v", want, victim.Health)
	}
}

func TestLifesteal(t *testing.T) {
	s := NewSim(1, nil)
	attacker := addCombatant(s, "a", 100, 100)
	victim := addCombatant(s, "b", 300, 100)
	attacker.Talents["blood_leech"] = 5 // 10% lifesteal
	attacker.invalidateEffects()
	attacker.Health = 50

	s.applyDamage(attacker, victim, 40, false)

	if math.Abs(attacker.Health-54) > 1e-9 {
		t.Errorf("expected attacker healed to 54, got %v", attacker.Health)
	}
}

func TestLifestealClampsAtMax(t *testing.T) {
	s := NewSim(1, nil)
	attacker := addCombatant(s, "a", 100, 100)
	victim := addCombatant(s, "b", 300, 100)
	attacker.Talents["blood_leech"] = 5
	attacker.invalidateEffects()

	s.applyDamage(attacker, victim, 40, false)

	if attacker.Health != attacker.MaxHealth {
		t.Errorf("lifesteal must not overheal, got %v/%v", attacker.Health, attacker.MaxHealth)
	}
}

func TestExecuteBonusBelowThreshold(t *testing.T) {
	s := NewSim(1, nil)
	attacker := addCombatant(s, "a", 100, 100)
	victim := addCombatant(s, "b", 300, 100)
	attacker.Talents["brawl_executioner"] = 5 // +25% vs low targets
	attacker.invalidateEffects()

	victim.Health = 50 // above threshold
	dmg, _ := s.attackerDamage(attacker, victim, 10)
	if math.Abs(dmg-10) > 1e-9 {
		t.Errorf("no execute bonus above threshold, got %v", dmg)
	}

	victim.Health = 25 // below 30%
	dmg, _ = s.attackerDamage(attacker, victim, 10)
	if math.Abs(dmg-12.5) > 1e-9 {
		t.Errorf("expected 12.5 with execute bonus, got %v", dmg)
	}
}

func TestFocusStacksBuildAndReset(t *testing.T) {
	s := NewSim(1, nil)
	attacker := addCombatant(s, "a", 100, 100)
	victim := addCombatant(s, "b", 300, 100)
	other := addCombatant(s, "c", 500, 100)
	attacker.Talents["brawl_momentum"] = 5 // +10% per stack
	attacker.invalidateEffects()

	dmg, _ := s.attackerDamage(attacker, victim, 10)
	if math.Abs(dmg-10) > 1e-9 {
		t.Errorf("first hit has no stacks, got %v", dmg)
	}
	dmg, _ = s.attackerDamage(attacker, victim, 10)
	if math.Abs(dmg-11) > 1e-9 {
		t.Errorf("second consecutive hit should have one stack, got %v", dmg)
	}

	// Stacks cap out.
	for i := 0; i < 20; i++ {
		s.attackerDamage(attacker, victim, 10)
	}
	if attacker.FocusStacks != MaxFocusStacks {
		t.Errorf("stacks should cap at %d, got %d", MaxFocusStacks, attacker.FocusStacks)
	}

	// Switching targets resets.
	s.attackerDamage(attacker, other, 10)
	if attacker.FocusStacks != 0 || attacker.FocusTarget != "c" {
		t.Errorf("switching targets should reset stacks, got %d on %s", attacker.FocusStacks, attacker.FocusTarget)
	}
}

func TestKillBookkeeping(t *testing.T) {
	s := NewSim(1, nil)
	killer := addCombatant(s, "a", 100, 100)
	victim := addCombatant(s, "b", 300, 100)
	victim.Health = 5

	s.applyDamage(killer, victim, 10, false)

	if victim.Alive {
		t.Fatal("victim should be dead")
	}
	if victim.Health != 0 {
		t.Errorf("health should clamp at zero, got %v", victim.Health)
	}
	if victim.Deaths != 1 || killer.Kills != 1 {
		t.Errorf("counters wrong: deaths %d, kills %d", victim.Deaths, killer.Kills)
	}
	want := s.now + ghostDuration(victim.Level)
	if victim.GhostUntil != want {
		t.Errorf("ghost until %v, want %v", victim.GhostUntil, want)
	}
	if killer.XP != killXP(1) {
		t.Errorf("killer should earn %d XP, got %d", killXP(1), killer.XP)
	}
	if victim.XP != DeathConsolationXP {
		t.Errorf("victim should earn consolation XP, got %d", victim.XP)
	}
	if len(s.deathEvents) != 1 || len(s.feed) != 1 {
		t.Errorf("expected one death event and one feed entry, got %d/%d", len(s.deathEvents), len(s.feed))
	}
	if !s.dirty["a"] || !s.dirty["b"] {
		t.Error("both sides of a kill should be marked dirty")
	}
}

func TestGhostReceivesNoDamage(t *testing.T) {
	s := NewSim(1, nil)
	attacker := addCombatant(s, "a", 100, 100)
	victim := addCombatant(s, "b", 300, 100)
	victim.die(s.now)

	s.applyDamage(attacker, victim, 50, false)

	if victim.Health != 0 || len(s.damageEvents) != 0 {
		t.Error("ghosts must not take damage")
	}
}

func TestGhostDealsNoDamage(t *testing.T) {
	s := NewSim(1, nil)
	shooter := addCombatant(s, "a", 100, 100)
	victim := addCombatant(s, "b", 300, 100)

	p := newProjectileCurve(s.reg.Get("a"), 300, 100, 8, 1, 0)
	shooter.die(s.now)

	s.resolveHit(p, "b")

	if victim.Health != victim.MaxHealth {
		t.Error("a shot from a combatant that died in flight must not land")
	}
}

func TestRespawnAtBoundary(t *testing.T) {
	s := NewSim(1, nil)
	c := addCombatant(s, "a", 100, 100)
	c.die(0)

	s.now = c.GhostUntil - 0.01
	s.stepLifecycle(1.0 / float64(TickRate))
	if c.Alive {
		t.Fatal("should still be a ghost just before the deadline")
	}

	s.now = c.GhostUntil
	s.stepLifecycle(1.0 / float64(TickRate))
	if !c.Alive {
		t.Fatal("should respawn exactly at the deadline")
	}
	if c.Health != c.MaxHealth {
		t.Errorf("respawn should restore full health, got %v", c.Health)
	}
}

func TestRegenTicks(t *testing.T) {
	s := NewSim(1, nil)
	c := addCombatant(s, "a", 100, 100)
	c.Talents["tank_regrowth"] = 5 // 1.0 health/s
	c.invalidateEffects()
	c.Health = 50

	s.stepLifecycle(0.5)

	if math.Abs(c.Health-50.5) > 1e-9 {
		t.Errorf("expected 50.5 after half a second of regen, got %v", c.Health)
	}
}

func TestAuraDamagesNearbyOnly(t *testing.T) {
	s := NewSim(1, nil)
	owner := addCombatant(s, "a", 500, 500)
	near := addCombatant(s, "b", 500+AuraRadius-10, 500)
	far := addCombatant(s, "c", 500+AuraRadius+200, 500)
	owner.Talents["brawl_overrun"] = 2
	owner.invalidateEffects()
	owner.lastAura = -10

	s.stepLifecycle(1.0 / float64(TickRate))

	if near.Health >= near.MaxHealth {
		t.Error("aura should damage a combatant inside the radius")
	}
	if far.Health != far.MaxHealth {
		t.Error("aura must not reach outside its radius")
	}
}

func TestKillFeedCapped(t *testing.T) {
	s := NewSim(1, nil)
	killer := addCombatant(s, "a", 100, 100)

	for i := 0; i < KillFeedCapacity+5; i++ {
		victim := addCombatant(s, GenerateID(4), 300, 100)
		s.kill(killer, victim)
	}

	if len(s.feed) != KillFeedCapacity {
		t.Errorf("feed should cap at %d, got %d", KillFeedCapacity, len(s.feed))
	}
}
