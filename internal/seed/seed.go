// Package seed populates a fresh database with a few reference calculations
// so the history endpoint has content to show on first run.
package seed

import (
	"database/sql"
	"fmt"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

type example struct {
	kind   string
	params string
	result string
}

// Reference results for well-known textbook inputs, rounded for display.
var examples = []example{
	{
		kind:   "loan_payment",
		params: `{"principal":300000,"annual_rate":0.05,"years":30,"payments_per_year":12}`,
		result: `{"payment":1610.46}`,
	},
	{
		kind:   "irr",
		params: `{"cash_flows":[-1000,300,400,500,600]}`,
		result: `{"irr":0.2489}`,
	},
	{
		kind:   "bond_price",
		params: `{"face_value":1000,"coupon_rate":0.06,"years_to_maturity":10,"yield_to_maturity":0.08,"payments_per_year":2}`,
		result: `{"price":864.10}`,
	},
}

// Run inserts the reference calculations when the history table is empty.
// It is idempotent: a non-empty table is left untouched.
func Run(database *sql.DB) (Stats, error) {
	tx, err := database.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM calculations`).Scan(&count); err != nil {
		_ = tx.Rollback()
		return Stats{}, fmt.Errorf("count calculations: %w", err)
	}

	if count == 0 {
		for _, ex := range examples {
			if _, err := tx.Exec(`
				INSERT INTO calculations (kind, params_json, result_json)
				VALUES (?, ?, ?)
			`, ex.kind, ex.params, ex.result); err != nil {
				_ = tx.Rollback()
				return Stats{}, fmt.Errorf("insert %s example: %w", ex.kind, err)
			}
			stats.Inserts++
		}
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}
