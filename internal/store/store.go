// Package store persists calculation history so past solves and schedules can
// be listed and audited.
package store

import (
	"database/sql"
	"fmt"
)

// Calculation is one saved computation: what was asked (params) and what came
// back (result), both as JSON documents.
type Calculation struct {
	ID         int64  `json:"id"`
	CreatedAt  string `json:"created_at"`
	Kind       string `json:"kind"`
	ParamsJSON string `json:"params"`
	ResultJSON string `json:"result"`
}

// Store reads and writes calculation history rows.
type Store struct {
	db *sql.DB
}

// New returns a Store backed by the given database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Save appends one calculation to the history.
func (s *Store) Save(kind, paramsJSON, resultJSON string) error {
	_, err := s.db.Exec(`
		INSERT INTO calculations (kind, params_json, result_json)
		VALUES (?, ?, ?)
	`, kind, paramsJSON, resultJSON)
	if err != nil {
		return fmt.Errorf("insert calculation: %w", err)
	}
	return nil
}

// List returns saved calculations newest first. A non-empty query filters by
// kind or by a substring of the stored parameters.
func (s *Store) List(query string) ([]Calculation, error) {
	search := "%" + query + "%"
	rows, err := s.db.Query(`
		SELECT id, created_at, kind, params_json, result_json
		FROM calculations
		WHERE (? = '' OR kind LIKE ? OR params_json LIKE ?)
		ORDER BY datetime(created_at) DESC, id DESC
	`, query, search, search)
	if err != nil {
		return nil, fmt.Errorf("query calculations: %w", err)
	}
	defer rows.Close()

	calculations := make([]Calculation, 0)
	for rows.Next() {
		var c Calculation
		if err := rows.Scan(&c.ID, &c.CreatedAt, &c.Kind, &c.ParamsJSON, &c.ResultJSON); err != nil {
			return nil, fmt.Errorf("scan calculation: %w", err)
		}
		calculations = append(calculations, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calculations: %w", err)
	}

	return calculations, nil
}

// Count returns the number of saved calculations.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM calculations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count calculations: %w", err)
	}
	return n, nil
}
