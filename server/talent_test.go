package main

import (
	"math"
	"testing"
)

func allocCode(t *testing.T, c *Combatant, id TalentID) string {
	t.Helper()
	err := AllocateTalent(c, id)
	if err == nil {
		return ""
	}
	ae, ok := err.(*AllocError)
	if !ok {
		t.Fatalf("expected *AllocError, got %T", err)
	}
	return ae.Code
}

func TestAllocateSpendsPoint(t *testing.T) {
	c := NewCombatant("a")
	c.Points = 1

	if code := allocCode(t, c, "tank_thick_shell"); code != "" {
		t.Fatalf("allocation should succeed, got %s", code)
	}
	if c.Points != 0 {
		t.Errorf("point should be spent, got %d", c.Points)
	}
	if c.Talents["tank_thick_shell"] != 1 {
		t.Errorf("rank should be 1, got %d", c.Talents["tank_thick_shell"])
	}
	if math.Abs(c.MaxHealth-108) > 1e-9 {
		t.Errorf("one rank of Thick Shell should set max health to 108, got %v", c.MaxHealth)
	}
}

func TestAllocateUnknownTalent(t *testing.T) {
	c := NewCombatant("a")
	c.Points = 1
	if code := allocCode(t, c, "nope"); code != ReasonUnknownTalent {
		t.Errorf("expected %s, got %s", ReasonUnknownTalent, code)
	}
	if c.Points != 1 {
		t.Error("rejection must not spend the point")
	}
}

func TestAllocateWithoutPoints(t *testing.T) {
	c := NewCombatant("a")
	if code := allocCode(t, c, "tank_thick_shell"); code != ReasonNoPoints {
		t.Errorf("expected %s, got %s", ReasonNoPoints, code)
	}
}

func TestAllocatePrerequisite(t *testing.T) {
	c := NewCombatant("a")
	c.Points = 5

	if code := allocCode(t, c, "tank_hardened"); code != ReasonPrerequisite {
		t.Errorf("slot 1 without slot 0 should fail with %s, got %s", ReasonPrerequisite, code)
	}

	// One rank in the previous slot unlocks the next.
	allocCode(t, c, "tank_thick_shell")
	if code := allocCode(t, c, "tank_hardened"); code != "" {
		t.Errorf("slot 1 should unlock after slot 0, got %s", code)
	}

	// Prerequisite is the immediately previous slot, not the whole chain.
	if code := allocCode(t, c, "tank_juggernaut"); code != ReasonPrerequisite {
		t.Errorf("slot 3 without slot 2 should fail, got %s", code)
	}
}

func TestAllocateMaxRank(t *testing.T) {
	c := NewCombatant("a")
	c.Points = 10

	for i := 0; i < RegularMaxRank; i++ {
		if code := allocCode(t, c, "tank_thick_shell"); code != "" {
			t.Fatalf("rank %d should succeed, got %s", i+1, code)
		}
	}
	if code := allocCode(t, c, "tank_thick_shell"); code != ReasonMaxRank {
		t.Errorf("expected %s past max rank, got %s", ReasonMaxRank, code)
	}
	if c.Points != 10-RegularMaxRank {
		t.Errorf("rejection must not spend points, got %d", c.Points)
	}
}

func TestCapstoneLimit(t *testing.T) {
	c := NewCombatant("a")
	c.Points = 3

	// Two capstones already active, third tree fully unlocked.
	c.Talents["tank_juggernaut"] = 1
	c.Talents["tank_bulwark"] = 1
	c.Talents["fire_cannon"] = 1
	c.Talents["mass_wide_net"] = 1
	c.invalidateEffects()

	if code := allocCode(t, c, "mass_tempest"); code != ReasonCapstoneCap {
		t.Errorf("third capstone should fail with %s, got %s", ReasonCapstoneCap, code)
	}
	if c.Talents["mass_tempest"] != 0 || c.Points != 3 {
		t.Error("rejection must leave state unchanged")
	}

	// Raising an already-active capstone is still allowed.
	if code := allocCode(t, c, "tank_bulwark"); code != "" {
		t.Errorf("ranking up an active capstone should succeed, got %s", code)
	}
}

func TestCapstoneMaxRank(t *testing.T) {
	c := NewCombatant("a")
	c.Points = 10
	c.Talents["fire_heavy_hitter"] = 1

	for i := 0; i < CapstoneMaxRank; i++ {
		if code := allocCode(t, c, "fire_cannon"); code != "" {
			t.Fatalf("capstone rank %d should succeed, got %s", i+1, code)
		}
	}
	if code := allocCode(t, c, "fire_cannon"); code != ReasonMaxRank {
		t.Errorf("capstone past rank %d should fail, got %s", CapstoneMaxRank, code)
	}
}

func TestResetRefundsPoints(t *testing.T) {
	c := NewCombatant("a")
	c.Level = 8
	c.XP = 4000
	c.Points = 7

	allocCode(t, c, "tank_thick_shell")
	allocCode(t, c, "tank_thick_shell")
	allocCode(t, c, "tank_hardened")
	allocCode(t, c, "fire_sharpened")
	if c.Points != 3 {
		t.Fatalf("expected 3 points left, got %d", c.Points)
	}

	ResetTalents(c)

	if c.Points != 7 {
		t.Errorf("reset should refund every spent point, got %d", c.Points)
	}
	if len(c.Talents) != 0 {
		t.Errorf("reset should clear all ranks, got %v", c.Talents)
	}
	if c.Level != 8 || c.XP != 4000 {
		t.Error("reset must not touch level or XP")
	}
	if c.MaxHealth != c.Effects().MaxHealth(8) {
		t.Error("max health should be recomputed after reset")
	}
}

func TestCatalogShape(t *testing.T) {
	if len(TalentCatalog) != 25 {
		t.Fatalf("expected 25 talents, got %d", len(TalentCatalog))
	}
	for tree, slots := range treeSlots {
		if len(slots) != 5 {
			t.Errorf("tree %s should have 5 slots", tree)
		}
		for i, id := range slots {
			if id == "" {
				t.Errorf("tree %s slot %d unfilled", tree, i)
				continue
			}
			def := talentByID[id]
			if i == 4 && (!def.Capstone || def.MaxRank != CapstoneMaxRank) {
				t.Errorf("%s should be a rank-%d capstone", id, CapstoneMaxRank)
			}
			if i < 4 && (def.Capstone || def.MaxRank != RegularMaxRank) {
				t.Errorf("%s should be a regular rank-%d talent", id, RegularMaxRank)
			}
		}
	}
}
