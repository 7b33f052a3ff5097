package main

import "fmt"

// Tree identifies one of the five talent trees.
type Tree string

const (
	TreeTank        Tree = "tank"
	TreeFirepower   Tree = "firepower"
	TreeBrawler     Tree = "brawler"
	TreeMassDamage  Tree = "mass-damage"
	TreeBloodThirst Tree = "blood-thirst"
)

// TalentID identifies a single talent.
type TalentID string

const (
	RegularMaxRank  = 5
	CapstoneMaxRank = 3

	// At most this many distinct capstones may hold rank > 0 on one
	// combatant, across all trees.
	MaxActiveCapstones = 2
)

// TalentDef is one entry of the talent catalog. Slot is the talent's
// position in its tree; slot N requires slot N-1 at rank >= 1.
type TalentDef struct {
	ID       TalentID `json:"id"`
	Tree     Tree     `json:"tree"`
	Slot     int      `json:"slot"`
	Name     string   `json:"name"`
	MaxRank  int      `json:"maxRank"`
	Capstone bool     `json:"capstone,omitempty"`
	Summary  string   `json:"summary" jsonschema:"description=Per-rank effect description shown to viewers"`
}

// TalentCatalog is the full fixed catalog: five trees, five talents
// each, in tree order. The last talent of each tree is its capstone.
var TalentCatalog = []TalentDef{
	// Tank
	{ID: "tank_thick_shell", Tree: TreeTank, Slot: 0, Name: "Thick Shell", MaxRank: 5, Summary: "+8% max health per rank"},
	{ID: "tank_hardened", Tree: TreeTank, Slot: 1, Name: "Hardened", MaxRank: 5, Summary: "+3% damage reduction per rank"},
	{ID: "tank_regrowth", Tree: TreeTank, Slot: 2, Name: "Regrowth", MaxRank: 5, Summary: "regenerate 0.2 health/s per rank"},
	{ID: "tank_juggernaut", Tree: TreeTank, Slot: 3, Name: "Juggernaut", MaxRank: 5, Summary: "+4% max health and +1% damage reduction per rank"},
	{ID: "tank_bulwark", Tree: TreeTank, Slot: 4, Name: "Bulwark", MaxRank: 3, Capstone: true, Summary: "+10% max health and +6% damage reduction per rank"},

	// Firepower
	{ID: "fire_sharpened", Tree: TreeFirepower, Slot: 0, Name: "Sharpened", MaxRank: 5, Summary: "+5% damage per rank"},
	{ID: "fire_rapid", Tree: TreeFirepower, Slot: 1, Name: "Rapid Fire", MaxRank: 5, Summary: "+4% fire rate per rank"},
	{ID: "fire_keen_eye", Tree: TreeFirepower, Slot: 2, Name: "Keen Eye", MaxRank: 5, Summary: "+3% critical strike chance per rank"},
	{ID: "fire_heavy_hitter", Tree: TreeFirepower, Slot: 3, Name: "Heavy Hitter", MaxRank: 5, Summary: "+6% damage and +10% critical damage per rank"},
	{ID: "fire_cannon", Tree: TreeFirepower, Slot: 4, Name: "Cannon", MaxRank: 3, Capstone: true, Summary: "periodic homing cannon shot, stronger per rank"},

	// Brawler
	{ID: "brawl_close_quarters", Tree: TreeBrawler, Slot: 0, Name: "Close Quarters", MaxRank: 5, Summary: "+4% damage per rank"},
	{ID: "brawl_momentum", Tree: TreeBrawler, Slot: 1, Name: "Momentum", MaxRank: 5, Summary: "+2% damage per rank per consecutive hit on the same target"},
	{ID: "brawl_executioner", Tree: TreeBrawler, Slot: 2, Name: "Executioner", MaxRank: 5, Summary: "+5% damage per rank against targets below 30% health"},
	{ID: "brawl_relentless", Tree: TreeBrawler, Slot: 3, Name: "Relentless", MaxRank: 5, Summary: "+3% fire rate and +2% damage per rank"},
	{ID: "brawl_overrun", Tree: TreeBrawler, Slot: 4, Name: "Overrun", MaxRank: 3, Capstone: true, Summary: "orbiting damage aura, stronger per rank"},

	// Mass damage
	{ID: "mass_splinter", Tree: TreeMassDamage, Slot: 0, Name: "Splinter", MaxRank: 5, Summary: "+4% multi-shot chance per rank"},
	{ID: "mass_ricochet", Tree: TreeMassDamage, Slot: 1, Name: "Ricochet", MaxRank: 5, Summary: "+5% ricochet chance per rank"},
	{ID: "mass_storm", Tree: TreeMassDamage, Slot: 2, Name: "Storm", MaxRank: 5, Summary: "+3% chain lightning chance per rank"},
	{ID: "mass_wide_net", Tree: TreeMassDamage, Slot: 3, Name: "Wide Net", MaxRank: 5, Summary: "+2% multi-shot and +2% ricochet chance per rank"},
	{ID: "mass_tempest", Tree: TreeMassDamage, Slot: 4, Name: "Tempest", MaxRank: 3, Capstone: true, Summary: "periodic sweep attack hitting everything nearby"},

	// Blood thirst
	{ID: "blood_leech", Tree: TreeBloodThirst, Slot: 0, Name: "Leech", MaxRank: 5, Summary: "+2% lifesteal per rank"},
	{ID: "blood_frenzy", Tree: TreeBloodThirst, Slot: 1, Name: "Frenzy", MaxRank: 5, Summary: "+3% fire rate per rank"},
	{ID: "blood_vampiric", Tree: TreeBloodThirst, Slot: 2, Name: "Vampiric", MaxRank: 5, Summary: "+1.5% lifesteal and +1% damage per rank"},
	{ID: "blood_thirst", Tree: TreeBloodThirst, Slot: 3, Name: "Thirst", MaxRank: 5, Summary: "heal 10% of max health per rank on kill"},
	{ID: "blood_bloodlust", Tree: TreeBloodThirst, Slot: 4, Name: "Bloodlust", MaxRank: 3, Capstone: true, Summary: "+8% lifesteal and +5% damage per rank"},
}

var (
	talentByID map[TalentID]*TalentDef
	treeSlots  map[Tree][]TalentID // slot-ordered talent IDs per tree
)

func init() {
	talentByID = make(map[TalentID]*TalentDef, len(TalentCatalog))
	treeSlots = make(map[Tree][]TalentID)
	for i := range TalentCatalog {
		def := &TalentCatalog[i]
		talentByID[def.ID] = def
	}
	for _, tree := range []Tree{TreeTank, TreeFirepower, TreeBrawler, TreeMassDamage, TreeBloodThirst} {
		slots := make([]TalentID, 5)
		for i := range TalentCatalog {
			def := &TalentCatalog[i]
			if def.Tree == tree {
				slots[def.Slot] = def.ID
			}
		}
		treeSlots[tree] = slots
	}
}

// Allocation rejection reason codes. Returned to the caller verbatim so
// clients can present a specific reason, not a generic failure.
const (
	ReasonUnknownTalent = "unknown_talent"
	ReasonNoCombatant   = "unknown_address"
	ReasonNoPoints      = "no_points"
	ReasonPrerequisite  = "missing_prerequisite"
	ReasonMaxRank       = "max_rank"
	ReasonCapstoneCap   = "capstone_limit"
)

// AllocError is a rejected talent allocation with a machine-readable
// reason code. Rejections leave combatant state unchanged.
type AllocError struct {
	Code   string
	Talent TalentID
}

func (e *AllocError) Error() string {
	return fmt.Sprintf("talent %s rejected: %s", e.Talent, e.Code)
}

// AllocateTalent spends one unspent point on the given talent. The
// engine is the source of truth for every rule here; clients only
// mirror them.
func AllocateTalent(c *Combatant, id TalentID) error {
	def, ok := talentByID[id]
	if !ok {
		return &AllocError{Code: ReasonUnknownTalent, Talent: id}
	}
	if c.Points <= 0 {
		return &AllocError{Code: ReasonNoPoints, Talent: id}
	}
	if c.Talents[id] >= def.MaxRank {
		return &AllocError{Code: ReasonMaxRank, Talent: id}
	}
	if def.Slot > 0 {
		prev := treeSlots[def.Tree][def.Slot-1]
		if c.Talents[prev] < 1 {
			return &AllocError{Code: ReasonPrerequisite, Talent: id}
		}
	}
	if def.Capstone && c.Talents[id] == 0 && c.capstoneCount() >= MaxActiveCapstones {
		return &AllocError{Code: ReasonCapstoneCap, Talent: id}
	}

	c.Talents[id]++
	c.Points--
	c.invalidateEffects()
	return nil
}

// ResetTalents clears every rank and refunds the spent points. Level
// and XP are untouched.
func ResetTalents(c *Combatant) {
	refund := c.spentPoints()
	c.Talents = make(map[TalentID]int)
	c.Points += refund
	c.FocusTarget = ""
	c.FocusStacks = 0
	c.invalidateEffects()
}
