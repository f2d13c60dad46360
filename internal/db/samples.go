package db

import (
	"database/sql"
	"fmt"

	"github.com/crux-data/vitals.report/internal/vitals"
)

// Entity is one monitored property and its reporting group.
type Entity struct {
	Name  string `json:"name"`
	Group string `json:"group"`
}

// UpsertEntities records entity group membership, replacing existing rows.
func (db *DB) UpsertEntities(entities []Entity) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO entities (name, grp) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare entity upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entities {
		if _, err := stmt.Exec(e.Name, e.Group); err != nil {
			return fmt.Errorf("failed to upsert entity %q: %w", e.Name, err)
		}
	}
	return tx.Commit()
}

// ListEntities returns all recorded entities ordered by name.
func (db *DB) ListEntities() ([]Entity, error) {
	rows, err := db.Query(`SELECT name, grp FROM entities ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities: %w", err)
	}
	defer rows.Close()

	var entities []Entity
	for rows.Next() {
		var e Entity
		if err := rows.Scan(&e.Name, &e.Group); err != nil {
			return nil, fmt.Errorf("failed to scan entity: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}

// InsertSamples stores a batch of raw observations, replacing any existing
// sample for the same (entity, day, variant, metric) key. Absent values are
// stored as NULL, keeping "no data" distinct from a measured zero.
func (db *DB) InsertSamples(samples []vitals.Sample) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT OR REPLACE INTO samples (entity, day, variant, metric, value)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare sample insert: %w", err)
	}
	defer stmt.Close()

	for _, s := range samples {
		var value sql.NullFloat64
		if s.Value != nil {
			value = sql.NullFloat64{Float64: *s.Value, Valid: true}
		}
		if _, err := stmt.Exec(s.Entity, string(s.Date), string(s.Variant), string(s.Metric), value); err != nil {
			return fmt.Errorf("failed to insert sample for %s/%s/%s/%s: %w",
				s.Entity, s.Date, s.Variant, s.Metric, err)
		}
	}
	return tx.Commit()
}

// LoadSamples materializes every stored observation, in (day, entity,
// variant, metric) order, ready for vitals.NewStore.
func (db *DB) LoadSamples() ([]vitals.Sample, error) {
	rows, err := db.Query(`
		SELECT entity, day, variant, metric, value
		FROM samples
		ORDER BY day, entity, variant, metric
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query samples: %w", err)
	}
	defer rows.Close()

	var samples []vitals.Sample
	for rows.Next() {
		var (
			s     vitals.Sample
			day   string
			vari  string
			met   string
			value sql.NullFloat64
		)
		if err := rows.Scan(&s.Entity, &day, &vari, &met, &value); err != nil {
			return nil, fmt.Errorf("failed to scan sample: %w", err)
		}
		s.Date = vitals.Date(day)
		s.Variant = vitals.Variant(vari)
		s.Metric = vitals.Metric(met)
		if value.Valid {
			s.Value = vitals.Float(value.Float64)
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}

// CountSamples returns the number of stored observations.
func (db *DB) CountSamples() (int, error) {
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM samples`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count samples: %w", err)
	}
	return n, nil
}
