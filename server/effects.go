package main

const (
	// Level-derived combat bonuses, on top of talents.
	DamagePctPerLevel = 0.01

	BaseCritBonus = 0.5 // +50% damage on a critical strike
	MaxCritChance = 0.6
	MaxArmor      = 0.75

	ExecuteHealthThreshold = 0.30
	MaxFocusStacks         = 5
)

// EffectSet is the folded result of a combatant's level and talent
// ranks. All percentage fields are additive accumulations; consumers
// apply each as a single multiplier, so stacking order never matters.
type EffectSet struct {
	MaxHealthPct float64
	ArmorPct     float64
	RegenPerSec  float64

	DamagePct    float64
	FireRatePct  float64
	CritChance   float64
	CritBonusPct float64 // added on top of BaseCritBonus
	ExecutePct   float64 // vs targets below ExecuteHealthThreshold
	FocusPct     float64 // per focus stack

	MultishotChance float64
	RicochetChance  float64
	ChainChance     float64

	LifestealPct  float64
	OnKillHealPct float64

	// Capstone proc ranks; 0 means the proc is inactive.
	CannonRank int
	AuraRank   int
	SweepRank  int
}

// MaxHealth folds the flat per-level bonus and the percentage bonus
// into the final max health for a level.
func (e *EffectSet) MaxHealth(level int) float64 {
	flat := BaseMaxHealth + HealthPerLevel*float64(level-1)
	return flat * (1 + e.MaxHealthPct)
}

// effectKind tags how a pipeline entry contributes to the fold.
type effectKind uint8

const (
	effectAdditive effectKind = iota // accumulates percentage fields
	effectProc                       // enables a rank-gated proc
)

// effectOp is one entry of the declarative talent pipeline. The
// pipeline order is fixed; because every additive contribution is a
// plain sum, the fold is deterministic regardless of allocation order.
type effectOp struct {
	talent TalentID
	kind   effectKind
	apply  func(rank int, e *EffectSet)
}

var effectPipeline = []effectOp{
	// Tank
	{"tank_thick_shell", effectAdditive, func(r int, e *EffectSet) { e.MaxHealthPct += 0.08 * float64(r) }},
	{"tank_hardened", effectAdditive, func(r int, e *EffectSet) { e.ArmorPct += 0.03 * float64(r) }},
	{"tank_regrowth", effectAdditive, func(r int, e *EffectSet) { e.RegenPerSec += 0.2 * float64(r) }},
	{"tank_juggernaut", effectAdditive, func(r int, e *EffectSet) {
		e.MaxHealthPct += 0.04 * float64(r)
		e.ArmorPct += 0.01 * float64(r)
	}},
	{"tank_bulwark", effectAdditive, func(r int, e *EffectSet) {
		e.MaxHealthPct += 0.10 * float64(r)
		e.ArmorPct += 0.06 * float64(r)
	}},

	// Firepower
	{"fire_sharpened", effectAdditive, func(r int, e *EffectSet) { e.DamagePct += 0.05 * float64(r) }},
	{"fire_rapid", effectAdditive, func(r int, e *EffectSet) { e.FireRatePct += 0.04 * float64(r) }},
	{"fire_keen_eye", effectAdditive, func(r int, e *EffectSet) { e.CritChance += 0.03 * float64(r) }},
	{"fire_heavy_hitter", effectAdditive, func(r int, e *EffectSet) {
		e.DamagePct += 0.06 * float64(r)
		e.CritBonusPct += 0.10 * float64(r)
	}},
	{"fire_cannon", effectProc, func(r int, e *EffectSet) { e.CannonRank = r }},

	// Brawler
	{"brawl_close_quarters", effectAdditive, func(r int, e *EffectSet) { e.DamagePct += 0.04 * float64(r) }},
	{"brawl_momentum", effectAdditive, func(r int, e *EffectSet) { e.FocusPct += 0.02 * float64(r) }},
	{"brawl_executioner", effectAdditive, func(r int, e *EffectSet) { e.ExecutePct += 0.05 * float64(r) }},
	{"brawl_relentless", effectAdditive, func(r int, e *EffectSet) {
		e.FireRatePct += 0.03 * float64(r)
		e.DamagePct += 0.02 * float64(r)
	}},
	{"brawl_overrun", effectProc, func(r int, e *EffectSet) { e.AuraRank = r }},

	// Mass damage
	{"mass_splinter", effectAdditive, func(r int, e *EffectSet) { e.MultishotChance += 0.04 * float64(r) }},
	{"mass_ricochet", effectAdditive, func(r int, e *EffectSet) { e.RicochetChance += 0.05 * float64(r) }},
	{"mass_storm", effectAdditive, func(r int, e *EffectSet) { e.ChainChance += 0.03 * float64(r) }},
	{"mass_wide_net", effectAdditive, func(r int, e *EffectSet) {
		e.MultishotChance += 0.02 * float64(r)
		e.RicochetChance += 0.02 * float64(r)
	}},
	{"mass_tempest", effectProc, func(r int, e *EffectSet) { e.SweepRank = r }},

	// Blood thirst
	{"blood_leech", effectAdditive, func(r int, e *EffectSet) { e.LifestealPct += 0.02 * float64(r) }},
	{"blood_frenzy", effectAdditive, func(r int, e *EffectSet) { e.FireRatePct += 0.03 * float64(r) }},
	{"blood_vampiric", effectAdditive, func(r int, e *EffectSet) {
		e.LifestealPct += 0.015 * float64(r)
		e.DamagePct += 0.01 * float64(r)
	}},
	{"blood_thirst", effectAdditive, func(r int, e *EffectSet) { e.OnKillHealPct += 0.10 * float64(r) }},
	{"blood_bloodlust", effectAdditive, func(r int, e *EffectSet) {
		e.LifestealPct += 0.08 * float64(r)
		e.DamagePct += 0.05 * float64(r)
	}},
}

// computeEffects folds level and talent ranks into an EffectSet. Pure
// with respect to the combatant's progression state; cached by
// Combatant.Effects.
func computeEffects(c *Combatant) *EffectSet {
	e := &EffectSet{
		DamagePct: DamagePctPerLevel * float64(c.Level-1),
	}
	for _, op := range effectPipeline {
		if rank := c.Talents[op.talent]; rank > 0 {
			op.apply(rank, e)
		}
	}
	if e.CritChance > MaxCritChance {
		e.CritChance = MaxCritChance
	}
	if e.ArmorPct > MaxArmor {
		e.ArmorPct = MaxArmor
	}
	return e
}
