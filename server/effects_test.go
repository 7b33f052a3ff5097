package main

import (
	"math"
	"reflect"
	"testing"
)

func TestEffectsLevelBonus(t *testing.T) {
	c := NewCombatant("a")
	if c.Effects().DamagePct != 0 {
		t.Errorf("level 1 has no level bonus, got %v", c.Effects().DamagePct)
	}

	c.Level = 5
	c.invalidateEffects()
	if math.Abs(c.Effects().DamagePct-0.04) > 1e-9 {
		t.Errorf("level 5 should carry +4%% damage, got %v", c.Effects().DamagePct)
	}
}

func TestEffectsMaxHealth(t *testing.T) {
	e := &EffectSet{}
	if e.MaxHealth(1) != 100 {
		t.Errorf("level 1 base max health must be exactly 100, got %v", e.MaxHealth(1))
	}
	if e.MaxHealth(2) != 102 {
		t.Errorf("level 2 base max health should be 102, got %v", e.MaxHealth(2))
	}

	e.MaxHealthPct = 0.5
	if math.Abs(e.MaxHealth(1)-150) > 1e-9 {
		t.Errorf("percentage applies after the flat bonus, got %v", e.MaxHealth(1))
	}
}

func TestEffectsFoldStacksAdditively(t *testing.T) {
	c := NewCombatant("a")
	c.Talents["tank_hardened"] = 5
	c.Talents["tank_juggernaut"] = 5
	c.invalidateEffects()

	e := c.Effects()
	if math.Abs(e.ArmorPct-0.20) > 1e-9 {
		t.Errorf("armor contributions should sum, got %v", e.ArmorPct)
	}
	if math.Abs(e.MaxHealthPct-0.20) > 1e-9 {
		t.Errorf("max health contributions should sum, got %v", e.MaxHealthPct)
	}
}

func TestEffectsCaps(t *testing.T) {
	c := NewCombatant("a")
	// Synthetic over-cap ranks; the fold must clamp regardless of source.
	c.Talents["fire_keen_eye"] = 30
	c.Talents["tank_hardened"] = 40
	c.invalidateEffects()

	e := c.Effects()
	if e.CritChance != MaxCritChance {
		t.Errorf("crit chance should cap at %v, got %v", MaxCritChance, e.CritChance)
	}
	if e.ArmorPct != MaxArmor {
		t.Errorf("armor should cap at %v, got %v", MaxArmor, e.ArmorPct)
	}
}

func TestEffectsOrderIndependent(t *testing.T) {
	build := func(order []TalentID) *EffectSet {
		c := NewCombatant("a")
		for _, id := range order {
			c.Talents[id]++
		}
		return computeEffects(c)
	}

	forward := build([]TalentID{"fire_sharpened", "fire_sharpened", "brawl_close_quarters", "blood_vampiric", "tank_thick_shell"})
	backward := build([]TalentID{"tank_thick_shell", "blood_vampiric", "brawl_close_quarters", "fire_sharpened", "fire_sharpened"})

	if !reflect.DeepEqual(forward, backward) {
		t.Errorf("effect fold must not depend on allocation order:\n%+v\n%+v", forward, backward)
	}
}

func TestEffectsProcRanks(t *testing.T) {
	c := NewCombatant("a")
	c.Talents["fire_cannon"] = 2
	c.Talents["brawl_overrun"] = 1
	c.Talents["mass_tempest"] = 3
	c.invalidateEffects()

	e := c.Effects()
	if e.CannonRank != 2 || e.AuraRank != 1 || e.SweepRank != 3 {
		t.Errorf("proc ranks should mirror talent ranks, got %d/%d/%d", e.CannonRank, e.AuraRank, e.SweepRank)
	}
}

func TestEffectsCacheInvalidation(t *testing.T) {
	c := NewCombatant("a")
	first := c.Effects()
	if c.Effects() != first {
		t.Error("effects should be cached between progression changes")
	}

	c.Talents["fire_sharpened"] = 1
	c.invalidateEffects()
	second := c.Effects()
	if second == first {
		t.Error("invalidation should recompute the set")
	}
	if math.Abs(second.DamagePct-0.05) > 1e-9 {
		t.Errorf("recomputed set should see the new rank, got %v", second.DamagePct)
	}
}
