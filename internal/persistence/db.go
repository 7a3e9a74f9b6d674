// Package persistence stores the creature roster, the synthesis outcome
// journal and the player wallet. The active process is never stored.
package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/synthesis-lab/internal/creature"
	"github.com/talgya/synthesis-lab/internal/items"
	"github.com/talgya/synthesis-lab/internal/synthesis"
)

// DB wraps a SQLite or Postgres connection.
type DB struct {
	conn *sqlx.DB
}

// Open connects with driver "sqlite" (dsn is a file path) or "pgx"
// (dsn is a postgres URL) and creates the schema if needed.
func Open(driver, dsn string) (*DB, error) {
	if driver == "sqlite" {
		dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	}
	conn, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if driver == "sqlite" {
		// One writer keeps sqlite from reporting SQLITE_BUSY under the API.
		conn.SetMaxOpenConns(1)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Statements run one at a time and use only syntax shared by sqlite and postgres.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS creatures (
		id TEXT PRIMARY KEY,
		species_id TEXT NOT NULL,
		name TEXT NOT NULL,
		primary_type TEXT NOT NULL,
		secondary_type TEXT NOT NULL,
		family TEXT NOT NULL,
		level INTEGER NOT NULL,
		experience INTEGER NOT NULL,
		personality TEXT NOT NULL,
		rung INTEGER NOT NULL,
		depth INTEGER NOT NULL,
		stats_json TEXT NOT NULL,
		skills_json TEXT NOT NULL,
		traits_json TEXT NOT NULL,
		parents_json TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS outcomes (
		process TEXT PRIMARY KEY,
		input_a TEXT NOT NULL,
		input_b TEXT NOT NULL,
		result_species TEXT NOT NULL,
		success INTEGER NOT NULL,
		rate REAL NOT NULL,
		roll REAL NOT NULL,
		offspring_id TEXT,
		finished_at BIGINT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS lab_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_outcomes_finished ON outcomes(finished_at)`,
	`CREATE INDEX IF NOT EXISTS idx_creatures_species ON creatures(species_id)`,
}

func (db *DB) migrate() error {
	for _, stmt := range schema {
		if _, err := db.conn.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

type creatureRow struct {
	ID            string `db:"id"`
	SpeciesID     string `db:"species_id"`
	Name          string `db:"name"`
	PrimaryType   string `db:"primary_type"`
	SecondaryType string `db:"secondary_type"`
	Family        string `db:"family"`
	Level         int    `db:"level"`
	Experience    int    `db:"experience"`
	Personality   string `db:"personality"`
	Rung          int    `db:"rung"`
	Depth         int    `db:"depth"`
	StatsJSON     string `db:"stats_json"`
	SkillsJSON    string `db:"skills_json"`
	TraitsJSON    string `db:"traits_json"`
	ParentsJSON   string `db:"parents_json"`
}

func toRow(c creature.Creature) (creatureRow, error) {
	stats, err := json.Marshal(c.BaseStats)
	if err != nil {
		return creatureRow{}, err
	}
	skills, _ := json.Marshal(nonNil(c.Skills))
	traits, _ := json.Marshal(nonNil(c.Traits))
	parents, _ := json.Marshal(nonNil(c.Parents))
	return creatureRow{
		ID:            c.ID,
		SpeciesID:     c.SpeciesID,
		Name:          c.Name,
		PrimaryType:   string(c.PrimaryType),
		SecondaryType: string(c.SecondaryType),
		Family:        string(c.Family),
		Level:         c.Level,
		Experience:    c.Experience,
		Personality:   c.Personality.String(),
		Rung:          c.Rung,
		Depth:         c.Depth,
		StatsJSON:     string(stats),
		SkillsJSON:    string(skills),
		TraitsJSON:    string(traits),
		ParentsJSON:   string(parents),
	}, nil
}

func (r creatureRow) creature() (creature.Creature, error) {
	c := creature.Creature{
		ID:            r.ID,
		SpeciesID:     r.SpeciesID,
		Name:          r.Name,
		PrimaryType:   creature.Type(r.PrimaryType),
		SecondaryType: creature.Type(r.SecondaryType),
		Family:        creature.Family(r.Family),
		Level:         r.Level,
		Experience:    r.Experience,
		Rung:          r.Rung,
		Depth:         r.Depth,
	}
	if err := c.Personality.UnmarshalText([]byte(r.Personality)); err != nil {
		return c, err
	}
	for _, col := range []struct {
		raw string
		dst any
	}{
		{r.StatsJSON, &c.BaseStats},
		{r.SkillsJSON, &c.Skills},
		{r.TraitsJSON, &c.Traits},
		{r.ParentsJSON, &c.Parents},
	} {
		if err := json.Unmarshal([]byte(col.raw), col.dst); err != nil {
			return c, err
		}
	}
	if len(c.Parents) == 0 {
		c.Parents = nil
	}
	return c, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

const insertCreature = `INSERT INTO creatures
	(id, species_id, name, primary_type, secondary_type, family, level, experience,
	 personality, rung, depth, stats_json, skills_json, traits_json, parents_json)
	VALUES (:id, :species_id, :name, :primary_type, :secondary_type, :family, :level, :experience,
	 :personality, :rung, :depth, :stats_json, :skills_json, :traits_json, :parents_json)`

// SaveCreatures writes the whole roster (full replace).
func (db *DB) SaveCreatures(cs []creature.Creature) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM creatures"); err != nil {
		return err
	}
	for _, c := range cs {
		row, err := toRow(c)
		if err != nil {
			return fmt.Errorf("encode creature %s: %w", c.ID, err)
		}
		if _, err := tx.NamedExec(insertCreature, row); err != nil {
			return fmt.Errorf("insert creature %s: %w", c.ID, err)
		}
	}
	return tx.Commit()
}

// PutCreature inserts or updates a single creature.
func (db *DB) PutCreature(c creature.Creature) error {
	row, err := toRow(c)
	if err != nil {
		return fmt.Errorf("encode creature %s: %w", c.ID, err)
	}
	_, err = db.conn.NamedExec(insertCreature+` ON CONFLICT (id) DO UPDATE SET
		level = excluded.level,
		experience = excluded.experience,
		rung = excluded.rung,
		stats_json = excluded.stats_json,
		skills_json = excluded.skills_json,
		traits_json = excluded.traits_json`, row)
	if err != nil {
		return fmt.Errorf("upsert creature %s: %w", c.ID, err)
	}
	return nil
}

// LoadCreatures returns every stored creature ordered by id.
func (db *DB) LoadCreatures() ([]creature.Creature, error) {
	var rows []creatureRow
	if err := db.conn.Select(&rows, "SELECT * FROM creatures ORDER BY id"); err != nil {
		return nil, fmt.Errorf("select creatures: %w", err)
	}
	out := make([]creature.Creature, 0, len(rows))
	for _, r := range rows {
		c, err := r.creature()
		if err != nil {
			return nil, fmt.Errorf("decode creature %s: %w", r.ID, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// LoadRoster loads every creature and reconciles cached synthesis depth
// against the stored lineage. A creature whose ancestors are no longer
// stored keeps its cached depth.
func (db *DB) LoadRoster() (*creature.Roster, error) {
	cs, err := db.LoadCreatures()
	if err != nil {
		return nil, err
	}
	roster := creature.NewRoster(cs...)
	for _, c := range cs {
		depth, err := roster.ChainDepth(c.ID)
		if errors.Is(err, creature.ErrBrokenLineage) {
			slog.Debug("lineage incomplete, keeping cached depth", "creature", c.ID, "depth", c.Depth)
			continue
		}
		if err != nil {
			return nil, err
		}
		if depth != c.Depth {
			slog.Warn("synthesis depth mismatch", "creature", c.ID, "cached", c.Depth, "lineage", depth)
			c.Depth = max(c.Depth, depth)
			roster.Put(c)
		}
	}
	return roster, nil
}

// OutcomeRecord is one journaled synthesis result.
type OutcomeRecord struct {
	Process       string         `db:"process" json:"process"`
	InputA        string         `db:"input_a" json:"input_a"`
	InputB        string         `db:"input_b" json:"input_b"`
	ResultSpecies string         `db:"result_species" json:"result_species"`
	Success       bool           `db:"success" json:"success"`
	Rate          float64        `db:"rate" json:"rate"`
	Roll          float64        `db:"roll" json:"roll"`
	OffspringID   sql.NullString `db:"offspring_id" json:"-"`
	FinishedAt    int64          `db:"finished_at" json:"finished_at"`
}

// RecordOutcome appends a finished process to the journal.
func (db *DB) RecordOutcome(p synthesis.Process, f synthesis.Final, finishedAt time.Time) error {
	var offspring sql.NullString
	if f.Offspring != nil {
		offspring = sql.NullString{String: f.Offspring.ID, Valid: true}
	}
	success := 0
	if f.Success {
		success = 1
	}
	_, err := db.conn.Exec(db.conn.Rebind(`INSERT INTO outcomes
		(process, input_a, input_b, result_species, success, rate, roll, offspring_id, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		string(p.ID), p.InputA.ID, p.InputB.ID, p.Recipe.ResultSpecies,
		success, f.Rate, f.Roll, offspring, finishedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert outcome %s: %w", p.ID, err)
	}
	return nil
}

// RecentOutcomes returns the most recent N journal entries, newest first.
func (db *DB) RecentOutcomes(limit int) ([]OutcomeRecord, error) {
	var out []OutcomeRecord
	err := db.conn.Select(&out, db.conn.Rebind(
		"SELECT * FROM outcomes ORDER BY finished_at DESC, process LIMIT ?"), limit)
	if err != nil {
		return nil, fmt.Errorf("select outcomes: %w", err)
	}
	return out, nil
}

// SaveMeta stores a key-value pair.
func (db *DB) SaveMeta(key, value string) error {
	_, err := db.conn.Exec(db.conn.Rebind(`INSERT INTO lab_meta (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`), key, value)
	return err
}

// GetMeta retrieves a metadata value. A missing key returns sql.ErrNoRows.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.Get(&value, db.conn.Rebind("SELECT value FROM lab_meta WHERE key = ?"), key)
	return value, err
}

const walletKey = "wallet"

// SaveWallet stores the player wallet.
func (db *DB) SaveWallet(w items.Wallet) error {
	data, err := json.Marshal(w)
	if err != nil {
		return err
	}
	if err := db.SaveMeta(walletKey, string(data)); err != nil {
		return fmt.Errorf("save wallet: %w", err)
	}
	return nil
}

// LoadWallet returns the stored wallet, or fallback when none was saved.
func (db *DB) LoadWallet(fallback items.Wallet) (items.Wallet, error) {
	raw, err := db.GetMeta(walletKey)
	if errors.Is(err, sql.ErrNoRows) {
		return fallback, nil
	}
	if err != nil {
		return items.Wallet{}, fmt.Errorf("load wallet: %w", err)
	}
	var w items.Wallet
	if err := json.Unmarshal([]byte(raw), &w); err != nil {
		return items.Wallet{}, fmt.Errorf("decode wallet: %w", err)
	}
	return w, nil
}
