package main

import (
	"log"
	"math/rand"
	"sync"
	"time"
)

const (
	TickRate       = 30 // simulation ticks per second
	BroadcastRate  = 15 // snapshot broadcasts per second
	TickDuration   = time.Second / TickRate
	BroadcastEvery = TickRate / BroadcastRate

	KillFeedCapacity = 10
	maxProjectiles   = 800
	holderQueueSize  = 8
	actionQueueSize  = 256
	PulseLifetime    = 2.0  // seconds a cosmetic pulse stays visible
	CommitInterval   = 10.0 // sim seconds between ledger delta commits
)

// ActionKind enumerates the discrete player requests the sim accepts.
type ActionKind string

const (
	ActionAllocate ActionKind = "allocate"
	ActionReset    ActionKind = "reset"
	ActionTx       ActionKind = "tx"
)

// Action is a queued request applied at the next tick boundary.
type Action struct {
	Kind    ActionKind
	Address string
	Talent  TalentID
	TxKind  string // "buy" / "sell", classified upstream
	Reply   chan ActionResult
}

// ActionResult is delivered back to the requesting client.
type ActionResult struct {
	OK   bool   `json:"ok"`
	Code string `json:"code,omitempty"`
}

// Pulse is a cosmetic-only spawn burst triggered by an observed
// transaction. No combat impact.
type Pulse struct {
	Kind string
	X, Y float64
	Born float64
}

// Publisher receives the serialized snapshot once per broadcast tick.
type Publisher interface {
	PublishState(data []byte)
}

// Sim owns all simulation state. The tick loop goroutine is the only
// writer; external callers enqueue inputs or read snapshots.
type Sim struct {
	mu          sync.RWMutex
	reg         *Registry
	combatants  map[string]*Combatant
	projectiles []*Projectile
	pulses      []Pulse
	feed        []KillRecord

	// Per-tick ephemeral events, consumed by the snapshot and ledger.
	damageEvents []DamageEvent
	deathEvents  []DeathEvent

	tick uint64
	now  float64 // sim seconds, accumulated from tick deltas
	rng  *rand.Rand

	ledger    *Ledger // nil in unit tests
	publisher Publisher

	holdersCh chan []Holder
	actionsCh chan Action

	// Addresses with progression changes not yet committed.
	dirty      map[string]bool
	lastCommit float64

	snapshot *Snapshot // latest published view

	running bool
	stop    chan struct{}
}

// NewSim creates a simulation with the given RNG seed. The ledger may
// be nil; progression then lives only in memory.
func NewSim(seed int64, ledger *Ledger) *Sim {
	return &Sim{
		reg:        NewRegistry(),
		combatants: make(map[string]*Combatant),
		rng:        rand.New(rand.NewSource(seed)),
		ledger:     ledger,
		holdersCh:  make(chan []Holder, holderQueueSize),
		actionsCh:  make(chan Action, actionQueueSize),
		dirty:      make(map[string]bool),
		stop:       make(chan struct{}),
	}
}

// SetPublisher sets the snapshot consumer.
func (s *Sim) SetPublisher(p Publisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = p
}

// Run drives the fixed-cadence tick loop until Stop.
func (s *Sim) Run() {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	ticker := time.NewTicker(TickDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(1.0 / float64(TickRate))
		case <-s.stop:
			return
		}
	}
}

// Stop terminates the tick loop.
func (s *Sim) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		s.running = false
		close(s.stop)
	}
}

// SubmitHolders queues a population refresh for the next tick. Drops
// the refresh if the queue is full; the next poll supersedes it anyway.
func (s *Sim) SubmitHolders(holders []Holder) {
	select {
	case s.holdersCh <- holders:
	default:
		log.Printf("sim: holder queue full, refresh dropped")
	}
}

// SubmitAction queues a player action. The result arrives on the
// action's reply channel after the next tick; a full queue fails fast.
func (s *Sim) SubmitAction(a Action) {
	select {
	case s.actionsCh <- a:
	default:
		if a.Reply != nil {
			a.Reply <- ActionResult{OK: false, Code: "queue_full"}
		}
	}
}

// Snapshot returns the most recently published snapshot, or nil before
// the first tick.
func (s *Sim) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Counts returns live entity totals for the stats endpoint.
func (s *Sim) Counts() (bubbles, projectiles int, tick uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.reg.Len(), len(s.projectiles), s.tick
}

// Tick advances the simulation by one step. Exported so tests can
// drive the loop deterministically without the wall-clock ticker.
func (s *Sim) Tick(dt float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tick++
	s.now += dt
	s.damageEvents = s.damageEvents[:0]
	s.deathEvents = s.deathEvents[:0]

	// External inputs apply atomically at the tick boundary, never
	// mid-tick, so every snapshot reflects one coherent state.
	s.drainInputs()

	stepPhysics(s.reg, dt, s.rng)
	s.stepProjectiles(dt)
	s.stepTargeting()
	s.stepLifecycle(dt)
	s.expirePulses()

	s.snapshot = s.buildSnapshot()
	if s.publisher != nil && s.tick%BroadcastEvery == 0 {
		if data, err := s.snapshot.Encode(); err == nil {
			s.publisher.PublishState(data)
		} else {
			log.Printf("sim: snapshot encode: %v", err)
		}
	}

	s.flushToLedger()
}

// drainInputs applies every queued population refresh, ledger load
// result, and player action.
func (s *Sim) drainInputs() {
	for {
		select {
		case holders := <-s.holdersCh:
			s.reconcile(holders)
			continue
		default:
		}
		break
	}

	if s.ledger != nil {
		for {
			select {
			case res := <-s.ledger.Results():
				s.mergeLoad(res)
				continue
			default:
			}
			break
		}
	}

	for {
		select {
		case a := <-s.actionsCh:
			res := s.applyAction(a)
			if a.Reply != nil {
				a.Reply <- res
			}
			continue
		default:
		}
		break
	}
}

// reconcile applies a population refresh and manages combatant
// life-cycle alongside the entity set.
func (s *Sim) reconcile(holders []Holder) {
	added, removed := s.reg.Reconcile(holders, s.rng)
	for _, addr := range added {
		if _, ok := s.combatants[addr]; !ok {
			s.combatants[addr] = NewCombatant(addr)
			if s.ledger != nil {
				s.ledger.RequestLoad(addr)
			}
		}
	}
	for _, addr := range removed {
		// Commit final progression before the combatant goes away.
		if c, ok := s.combatants[addr]; ok && s.ledger != nil {
			s.ledger.CommitProgress([]ProgressRow{progressRowOf(c)})
		}
		delete(s.combatants, addr)
		delete(s.dirty, addr)
	}
}

// mergeLoad folds a ledger read into a combatant: the stored row
// becomes the base, then everything earned since first sight is
// re-applied on top. A missing row keeps the level-1 defaults.
func (s *Sim) mergeLoad(res LoadResult) {
	c, ok := s.combatants[res.Address]
	if !ok || !res.Found {
		return
	}
	row := res.Row
	c.Level = row.Level
	if c.Level < 1 {
		c.Level = 1
	}
	c.XP = row.XP
	c.Kills = row.Kills + c.sessionKills
	c.Deaths = row.Deaths + c.sessionDeaths
	c.Talents = make(map[TalentID]int, len(row.Talents))
	for id, rank := range row.Talents {
		if def, ok := talentByID[id]; ok && rank > 0 {
			if rank > def.MaxRank {
				rank = def.MaxRank
			}
			c.Talents[id] = rank
		}
	}

	c.XP += c.sessionXP
	for c.Level < MaxLevel && c.XP >= xpForLevel(c.Level+1) {
		c.Level++
	}
	c.Points = c.Level - 1 - c.spentPoints()
	if c.Points < 0 {
		c.Points = 0
	}
	c.invalidateEffects()
	if c.Alive {
		c.MaxHealth = c.Effects().MaxHealth(c.Level)
		if c.Health > c.MaxHealth {
			c.Health = c.MaxHealth
		}
	}
}

// applyAction executes one queued player request.
func (s *Sim) applyAction(a Action) ActionResult {
	switch a.Kind {
	case ActionAllocate:
		c, ok := s.combatants[a.Address]
		if !ok {
			return ActionResult{OK: false, Code: ReasonNoCombatant}
		}
		if err := AllocateTalent(c, a.Talent); err != nil {
			if ae, ok := err.(*AllocError); ok {
				return ActionResult{OK: false, Code: ae.Code}
			}
			return ActionResult{OK: false, Code: "rejected"}
		}
		s.dirty[a.Address] = true
		return ActionResult{OK: true}

	case ActionReset:
		c, ok := s.combatants[a.Address]
		if !ok {
			return ActionResult{OK: false, Code: ReasonNoCombatant}
		}
		ResetTalents(c)
		s.dirty[a.Address] = true
		return ActionResult{OK: true}

	case ActionTx:
		s.pulses = append(s.pulses, Pulse{
			Kind: a.TxKind,
			X:    s.rng.Float64() * ArenaWidth,
			Y:    s.rng.Float64() * ArenaHeight,
			Born: s.now,
		})
		return ActionResult{OK: true}
	}
	return ActionResult{OK: false, Code: "unknown_action"}
}

// expirePulses drops cosmetic pulses past their lifetime.
func (s *Sim) expirePulses() {
	kept := s.pulses[:0]
	for _, p := range s.pulses {
		if s.now-p.Born < PulseLifetime {
			kept = append(kept, p)
		}
	}
	s.pulses = kept
}

// combatantFor returns the combatant for an address, creating it
// lazily on first participation in a tick.
func (s *Sim) combatantFor(addr string) *Combatant {
	c, ok := s.combatants[addr]
	if !ok {
		c = NewCombatant(addr)
		s.combatants[addr] = c
		if s.ledger != nil {
			s.ledger.RequestLoad(addr)
		}
	}
	return c
}

// flushToLedger periodically hands progression deltas and the tick's
// combat events to the background ledger writer. Never blocks.
func (s *Sim) flushToLedger() {
	if s.ledger == nil {
		return
	}
	if len(s.deathEvents) > 0 || len(s.damageEvents) > 0 {
		s.ledger.ArchiveEvents(s.tick, s.damageEvents, s.deathEvents)
	}
	if s.now-s.lastCommit < CommitInterval {
		return
	}
	s.lastCommit = s.now
	if len(s.dirty) == 0 {
		return
	}
	rows := make([]ProgressRow, 0, len(s.dirty))
	for addr := range s.dirty {
		if c, ok := s.combatants[addr]; ok {
			rows = append(rows, progressRowOf(c))
		}
	}
	s.dirty = make(map[string]bool)
	s.ledger.CommitProgress(rows)
}

// progressRowOf snapshots a combatant's durable progression state.
func progressRowOf(c *Combatant) ProgressRow {
	talents := make(map[TalentID]int, len(c.Talents))
	for id, rank := range c.Talents {
		talents[id] = rank
	}
	return ProgressRow{
		Address: c.Address,
		Level:   c.Level,
		XP:      c.XP,
		Kills:   c.Kills,
		Deaths:  c.Deaths,
		Talents: talents,
	}
}
