package main

import (
	"log"
	"sync"
	"time"
)

const (
	ledgerQueueSize   = 1024
	ledgerMaxRetries  = 5
	ledgerBackoffBase = 250 * time.Millisecond
	ledgerBackoffCap  = 8 * time.Second
)

// LoadResult is a completed asynchronous progression read, merged into
// the sim at the next tick boundary.
type LoadResult struct {
	Address string
	Found   bool
	Row     ProgressRow
}

type ledgerWrite struct {
	progress []ProgressRow
	events   []EventRow
}

// Ledger is the durable progression authority. Reads and writes run on
// background goroutines so the tick loop never blocks on I/O; write
// failures are retried with exponential backoff and never affect
// in-memory combat state.
type Ledger struct {
	db      *DB
	loads   chan string
	writes  chan ledgerWrite
	results chan LoadResult
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewLedger starts the loader and writer goroutines.
func NewLedger(db *DB) *Ledger {
	l := &Ledger{
		db:      db,
		loads:   make(chan string, ledgerQueueSize),
		writes:  make(chan ledgerWrite, ledgerQueueSize),
		results: make(chan LoadResult, ledgerQueueSize),
		stop:    make(chan struct{}),
	}
	l.wg.Add(2)
	go l.loader()
	go l.writer()
	return l
}

// Results delivers completed loads to the sim.
func (l *Ledger) Results() <-chan LoadResult {
	return l.results
}

// RequestLoad queues an asynchronous progression read. A full queue
// drops the request; the address simply plays on at level 1 until a
// later commit round-trips its state.
func (l *Ledger) RequestLoad(address string) {
	select {
	case l.loads <- address:
	default:
		log.Printf("ledger: load queue full, %s starts fresh", address)
	}
}

// CommitProgress queues a progression delta batch. Non-blocking.
func (l *Ledger) CommitProgress(rows []ProgressRow) {
	if len(rows) == 0 {
		return
	}
	select {
	case l.writes <- ledgerWrite{progress: rows}:
	default:
		log.Printf("ledger: write queue full, dropping %d progress rows", len(rows))
	}
}

// ArchiveEvents queues the tick's combat events for the archive.
func (l *Ledger) ArchiveEvents(tick uint64, damage []DamageEvent, deaths []DeathEvent) {
	events := make([]EventRow, 0, len(damage)+len(deaths))
	for _, d := range damage {
		events = append(events, EventRow{
			ID: d.ID, Tick: d.Tick, Kind: "damage",
			Attacker: d.Attacker, Victim: d.Victim, Amount: d.Amount,
		})
	}
	for _, d := range deaths {
		events = append(events, EventRow{
			ID: d.ID, Tick: d.Tick, Kind: "death",
			Attacker: d.Killer, Victim: d.Victim,
		})
	}
	if len(events) == 0 {
		return
	}
	select {
	case l.writes <- ledgerWrite{events: events}:
	default:
		// Event archive is best-effort; drop rather than block.
	}
}

// Stop drains pending writes and shuts the goroutines down.
func (l *Ledger) Stop() {
	close(l.stop)
	l.wg.Wait()
}

// loader serves progression reads.
func (l *Ledger) loader() {
	defer l.wg.Done()
	for {
		select {
		case addr := <-l.loads:
			row, err := l.db.GetProgress(addr)
			if err != nil {
				// Stale or absent reads are acceptable; the sim keeps
				// its defaults until a later load succeeds.
				log.Printf("ledger: load %s: %v", addr, err)
				continue
			}
			res := LoadResult{Address: addr}
			if row != nil {
				res.Found = true
				res.Row = *row
			}
			select {
			case l.results <- res:
			default:
				log.Printf("ledger: result queue full, dropping load for %s", addr)
			}
		case <-l.stop:
			return
		}
	}
}

// writer applies write batches with exponential backoff on failure.
func (l *Ledger) writer() {
	defer l.wg.Done()
	for {
		select {
		case w := <-l.writes:
			l.applyWithRetry(w)
		case <-l.stop:
			// Drain whatever is queued before exiting.
			for {
				select {
				case w := <-l.writes:
					l.applyWithRetry(w)
				default:
					return
				}
			}
		}
	}
}

func (l *Ledger) applyWithRetry(w ledgerWrite) {
	backoff := ledgerBackoffBase
	for attempt := 0; ; attempt++ {
		err := l.apply(w)
		if err == nil {
			return
		}
		if attempt >= ledgerMaxRetries {
			log.Printf("ledger: giving up after %d attempts: %v", attempt+1, err)
			return
		}
		log.Printf("ledger: write failed (attempt %d): %v", attempt+1, err)
		select {
		case <-time.After(backoff):
		case <-l.stop:
			return
		}
		backoff *= 2
		if backoff > ledgerBackoffCap {
			backoff = ledgerBackoffCap
		}
	}
}

func (l *Ledger) apply(w ledgerWrite) error {
	if len(w.progress) > 0 {
		if err := l.db.UpsertProgress(w.progress); err != nil {
			return err
		}
	}
	if len(w.events) > 0 {
		if err := l.db.InsertEvents(w.events); err != nil {
			return err
		}
	}
	return nil
}
