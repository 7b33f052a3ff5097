package main

import "math"

const (
	KillXPBase           = 25
	KillXPPerVictimLevel = 10
	DeathConsolationXP   = 5
)

// xpForLevel returns the cumulative XP required to reach a level.
// Level 1 requires 0. Formula: sum of 100 * i^1.5 for i in 1..level-1.
func xpForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	total := 0.0
	for i := 1; i < level; i++ {
		total += 100.0 * math.Pow(float64(i), 1.5)
	}
	return int(total)
}

// xpToNextLevel returns the XP gap between a level and the next.
func xpToNextLevel(level int) int {
	return xpForLevel(level+1) - xpForLevel(level)
}

// applyXP awards XP and processes level-ups as a loop — a single big
// award can gain several levels at once, each granting exactly one
// talent point. Returns the number of levels gained.
func applyXP(c *Combatant, amount int) int {
	if amount <= 0 {
		return 0
	}
	c.XP += amount
	c.sessionXP += amount

	gained := 0
	for c.Level < MaxLevel && c.XP >= xpForLevel(c.Level+1) {
		c.Level++
		c.Points++
		gained++
	}
	if gained > 0 {
		c.invalidateEffects()
	}
	return gained
}

// killXP is the XP a killer earns for a victim of the given level.
func killXP(victimLevel int) int {
	return KillXPBase + KillXPPerVictimLevel*victimLevel
}
