package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database backing the progression ledger.
type DB struct {
	conn *sql.DB
}

// ProgressRow is one address's durable progression state.
type ProgressRow struct {
	Address string
	Level   int
	XP      int
	Kills   int
	Deaths  int
	Talents map[TalentID]int
}

// EventRow is one archived combat event.
type EventRow struct {
	ID       string
	Tick     uint64
	Kind     string // "damage" or "death"
	Attacker string
	Victim   string
	Amount   float64
}

// OpenDB opens (or creates) the SQLite ledger database.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL mode so the background writer never stalls readers.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS progress (
		address TEXT PRIMARY KEY,
		level INTEGER NOT NULL DEFAULT 1,
		xp INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0,
		deaths INTEGER NOT NULL DEFAULT 0,
		talents TEXT NOT NULL DEFAULT '{}',
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS events (
		id TEXT PRIMARY KEY,
		tick INTEGER NOT NULL,
		kind TEXT NOT NULL,
		attacker TEXT NOT NULL DEFAULT '',
		victim TEXT NOT NULL DEFAULT '',
		amount REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS claims (
		address TEXT PRIMARY KEY,
		code_hash TEXT NOT NULL,
		claimed INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_kind ON events(kind);
	CREATE INDEX IF NOT EXISTS idx_events_victim ON events(victim);
	`
	_, err := db.conn.Exec(schema)
	if err != nil {
		log.Printf("DB migration error: %v", err)
	}
	return err
}

// GetProgress loads the progression row for an address. Returns
// (nil, nil) when the address has never been persisted.
func (db *DB) GetProgress(address string) (*ProgressRow, error) {
	row := db.conn.QueryRow(
		"SELECT address, level, xp, kills, deaths, talents FROM progress WHERE address = ?",
		address,
	)
	p := &ProgressRow{}
	var talents string
	err := row.Scan(&p.Address, &p.Level, &p.XP, &p.Kills, &p.Deaths, &talents)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Talents = make(map[TalentID]int)
	if err := json.Unmarshal([]byte(talents), &p.Talents); err != nil {
		log.Printf("ledger: bad talents blob for %s: %v", address, err)
		p.Talents = make(map[TalentID]int)
	}
	return p, nil
}

// UpsertProgress writes a batch of progression rows in one transaction.
func (db *DB) UpsertProgress(rows []ProgressRow) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO progress (address, level, xp, kills, deaths, talents, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			level = excluded.level,
			xp = excluded.xp,
			kills = excluded.kills,
			deaths = excluded.deaths,
			talents = excluded.talents,
			updated_at = excluded.updated_at`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, r := range rows {
		talents, _ := json.Marshal(r.Talents)
		if _, err := stmt.Exec(r.Address, r.Level, r.XP, r.Kills, r.Deaths, string(talents), now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// InsertEvents archives a batch of combat events in one transaction.
func (db *DB) InsertEvents(events []EventRow) error {
	if len(events) == 0 {
		return nil
	}
	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		"INSERT OR IGNORE INTO events (id, tick, kind, attacker, victim, amount, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)
	for _, e := range events {
		if _, err := stmt.Exec(e.ID, e.Tick, e.Kind, e.Attacker, e.Victim, e.Amount, now); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LeaderboardEntry is one row of the public leaderboard.
type LeaderboardEntry struct {
	Rank    int    `json:"rank"`
	Address string `json:"address"`
	Level   int    `json:"level"`
	XP      int    `json:"xp"`
	Kills   int    `json:"kills"`
	Deaths  int    `json:"deaths"`
}

// GetLeaderboard returns top addresses ordered by the given column.
func (db *DB) GetLeaderboard(orderBy string, limit int) ([]LeaderboardEntry, error) {
	validCols := map[string]string{
		"kills": "kills", "level": "level", "xp": "xp",
		"kd": "CASE WHEN deaths > 0 THEN CAST(kills AS REAL)/deaths ELSE kills END",
	}
	col, ok := validCols[orderBy]
	if !ok {
		col = "kills"
	}

	query := `SELECT address, level, xp, kills, deaths FROM progress
		ORDER BY ` + col + ` DESC LIMIT ?`
	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Address, &e.Level, &e.XP, &e.Kills, &e.Deaths); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// SetClaimCode stores the bcrypt hash for an address's claim code,
// replacing any previous unclaimed code.
func (db *DB) SetClaimCode(address, codeHash string) error {
	_, err := db.conn.Exec(`
		INSERT INTO claims (address, code_hash, claimed) VALUES (?, ?, 0)
		ON CONFLICT(address) DO UPDATE SET code_hash = excluded.code_hash, claimed = 0`,
		address, codeHash)
	return err
}

// GetClaim returns the stored code hash and claimed flag for an address.
func (db *DB) GetClaim(address string) (string, bool, error) {
	var hash string
	var claimed int
	err := db.conn.QueryRow(
		"SELECT code_hash, claimed FROM claims WHERE address = ?", address,
	).Scan(&hash, &claimed)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return hash, claimed != 0, nil
}

// MarkClaimed flags an address as claimed.
func (db *DB) MarkClaimed(address string) error {
	_, err := db.conn.Exec("UPDATE claims SET claimed = 1 WHERE address = ?", address)
	return err
}

// GetSetting reads a settings value, empty string if absent.
func (db *DB) GetSetting(key string) string {
	var value string
	err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if err != nil {
		return ""
	}
	return value
}

// SetSetting writes a settings value.
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}
