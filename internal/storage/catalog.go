package storage

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Entry is one indexed run.
type Entry struct {
	ID         string  `db:"id"`
	Name       string  `db:"name"`
	CreatedAt  int64   `db:"created_at"`
	Integrator string  `db:"integrator"`
	Time       float64 `db:"time"`
	TotalLoss  float64 `db:"total_loss"`
	Cf1        float64 `db:"cf1"`
	Cf2        float64 `db:"cf2"`
	Cf3        float64 `db:"cf3"`
	Cf4        float64 `db:"cf4"`
	Cf5        float64 `db:"cf5"`
	Steps      int     `db:"steps"`
}

// Created is CreatedAt as a time.
func (e Entry) Created() time.Time { return time.Unix(0, e.CreatedAt).UTC() }

// Final is the stored indicator vector at full concentration.
func (e Entry) Final() []float64 { return []float64{e.Cf1, e.Cf2, e.Cf3, e.Cf4, e.Cf5} }

// Catalog is a SQLite index over stored runs so listings and loss rankings do
// not have to read every run directory.
type Catalog struct {
	conn *sqlx.DB
}

// OpenCatalog opens or creates the catalog database at path.
func OpenCatalog(path string) (*Catalog, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	c := &Catalog{conn: conn}
	if err := c.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return c, nil
}

func (c *Catalog) Close() error {
	return c.conn.Close()
}

func (c *Catalog) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		integrator TEXT NOT NULL,
		time REAL NOT NULL,
		total_loss REAL NOT NULL,
		cf1 REAL NOT NULL,
		cf2 REAL NOT NULL,
		cf3 REAL NOT NULL,
		cf4 REAL NOT NULL,
		cf5 REAL NOT NULL,
		steps INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
	CREATE INDEX IF NOT EXISTS idx_runs_loss ON runs(total_loss);
	`
	_, err := c.conn.Exec(schema)
	return err
}

// Record indexes a saved run. Re-recording an id replaces the entry.
func (c *Catalog) Record(meta *RunMetadata) error {
	e := Entry{
		ID:         meta.ID,
		Name:       meta.Name,
		CreatedAt:  meta.Timestamp.UnixNano(),
		Integrator: meta.Integrator,
		Time:       meta.Time,
		TotalLoss:  meta.TotalLoss,
		Steps:      meta.Steps,
	}
	final := [5]*float64{&e.Cf1, &e.Cf2, &e.Cf3, &e.Cf4, &e.Cf5}
	for i, v := range meta.Final {
		if i < len(final) {
			*final[i] = v
		}
	}

	tx, err := c.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.NamedExec(`INSERT OR REPLACE INTO runs
		(id, name, created_at, integrator, time, total_loss, cf1, cf2, cf3, cf4, cf5, steps)
		VALUES (:id, :name, :created_at, :integrator, :time, :total_loss, :cf1, :cf2, :cf3, :cf4, :cf5, :steps)`, e)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	return tx.Commit()
}

// Recent returns up to limit entries, newest first.
func (c *Catalog) Recent(limit int) ([]Entry, error) {
	var entries []Entry
	err := c.conn.Select(&entries,
		"SELECT * FROM runs ORDER BY created_at DESC LIMIT ?",
		limit,
	)
	return entries, err
}

// Worst returns up to limit entries ordered by total loss, highest first.
func (c *Catalog) Worst(limit int) ([]Entry, error) {
	var entries []Entry
	err := c.conn.Select(&entries,
		"SELECT * FROM runs ORDER BY total_loss DESC, created_at DESC LIMIT ?",
		limit,
	)
	return entries, err
}

// Get returns the entry for id.
func (c *Catalog) Get(id string) (*Entry, error) {
	var e Entry
	if err := c.conn.Get(&e, "SELECT * FROM runs WHERE id = ?", id); err != nil {
		return nil, err
	}
	return &e, nil
}

// Count is the number of indexed runs.
func (c *Catalog) Count() (int, error) {
	var n int
	err := c.conn.Get(&n, "SELECT COUNT(*) FROM runs")
	return n, err
}
