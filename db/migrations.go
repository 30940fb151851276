package db

import (
	"database/sql"
	"fmt"

	"github.com/rohanthewiz/logger"
	"github.com/rohanthewiz/serr"
)

// Migration represents a database migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Tables carry no foreign keys: DuckDB refuses updates to rows that are
// referenced by another table, and plans are updated throughout their life.
var migrations = []Migration{
	{
		Version:     1,
		Description: "Create plan and task schema",
		SQL: `
			CREATE SEQUENCE IF NOT EXISTS plans_id_seq START 1;
			CREATE TABLE IF NOT EXISTS plans (
				id BIGINT PRIMARY KEY DEFAULT nextval('plans_id_seq'),
				plan_name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				plant_id BIGINT,
				yield_id BIGINT,
				expert_id TEXT,
				season_name TEXT NOT NULL DEFAULT '',
				start_date TIMESTAMP,
				end_date TIMESTAMP,
				estimated_product DOUBLE NOT NULL DEFAULT 0,
				estimated_unit TEXT NOT NULL DEFAULT '',
				seed_quantity DOUBLE NOT NULL DEFAULT 0,
				status TEXT NOT NULL CHECK (status IN ('Draft', 'Pending', 'Ongoing', 'Complete', 'Cancel')),
				created_by TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_by TEXT NOT NULL DEFAULT '',
				updated_at TIMESTAMP
			);

			CREATE SEQUENCE IF NOT EXISTS caring_tasks_id_seq START 1;
			CREATE TABLE IF NOT EXISTS caring_tasks (
				id BIGINT PRIMARY KEY DEFAULT nextval('caring_tasks_id_seq'),
				plan_id BIGINT NOT NULL,
				task_name TEXT NOT NULL,
				task_type TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				start_date TIMESTAMP,
				end_date TIMESTAMP,
				fertilizer_id BIGINT,
				pesticide_id BIGINT,
				items TEXT NOT NULL DEFAULT '[]',
				status TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_caring_tasks_plan ON caring_tasks(plan_id);

			CREATE SEQUENCE IF NOT EXISTS harvesting_tasks_id_seq START 1;
			CREATE TABLE IF NOT EXISTS harvesting_tasks (
				id BIGINT PRIMARY KEY DEFAULT nextval('harvesting_tasks_id_seq'),
				plan_id BIGINT NOT NULL,
				task_name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				start_date TIMESTAMP,
				end_date TIMESTAMP,
				items TEXT NOT NULL DEFAULT '[]',
				status TEXT NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_harvesting_tasks_plan ON harvesting_tasks(plan_id);

			CREATE SEQUENCE IF NOT EXISTS inspecting_forms_id_seq START 1;
			CREATE TABLE IF NOT EXISTS inspecting_forms (
				id BIGINT PRIMARY KEY DEFAULT nextval('inspecting_forms_id_seq'),
				plan_id BIGINT NOT NULL,
				task_name TEXT NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				start_date TIMESTAMP,
				end_date TIMESTAMP,
				inspector_id BIGINT,
				status TEXT NOT NULL DEFAULT ''
			);
			CREATE INDEX IF NOT EXISTS idx_inspecting_forms_plan ON inspecting_forms(plan_id);
		`,
	},
	{
		Version:     2,
		Description: "Create reference catalogs",
		SQL: `
			CREATE TABLE IF NOT EXISTS catalog_entries (
				catalog TEXT NOT NULL CHECK (catalog IN ('items', 'fertilizers', 'pesticides', 'plants', 'yields')),
				id BIGINT NOT NULL,
				name TEXT NOT NULL,
				unit TEXT NOT NULL DEFAULT '',
				PRIMARY KEY (catalog, id)
			);

			INSERT INTO catalog_entries (catalog, id, name, unit) VALUES
				('plants', 1, 'Lettuce', ''),
				('plants', 2, 'Tomato', ''),
				('plants', 3, 'Cucumber', ''),
				('plants', 4, 'Bok choy', ''),
				('yields', 1, 'Greenhouse A', ''),
				('yields', 2, 'Greenhouse B', ''),
				('yields', 3, 'North field', ''),
				('items', 1, 'Watering can', 'pcs'),
				('items', 2, 'Harvest crate', 'crate'),
				('items', 3, 'Seed tray', 'tray'),
				('items', 4, 'Pruning shears', 'pcs'),
				('items', 5, 'Sprayer', 'pcs'),
				('fertilizers', 1, 'NPK 16-16-8', 'kg'),
				('fertilizers', 2, 'Organic compost', 'kg'),
				('fertilizers', 3, 'Urea', 'kg'),
				('pesticides', 1, 'Neem oil', 'l'),
				('pesticides', 2, 'Copper fungicide', 'l'),
				('pesticides', 3, 'Bt spray', 'l');
		`,
	},
}

// Migrate runs all pending database migrations
func (db *DB) Migrate() error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return serr.Wrap(err, "failed to create migrations table")
	}

	var currentVersion int
	err = db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM migrations").Scan(&currentVersion)
	if err != nil {
		return serr.Wrap(err, "failed to get current migration version")
	}

	logger.Info("Current migration version", "version", currentVersion)

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		logger.Info("Applying migration", "version", migration.Version, "description", migration.Description)

		err := db.Transaction(func(tx *sql.Tx) error {
			if _, err := tx.Exec(migration.SQL); err != nil {
				return serr.Wrap(err, fmt.Sprintf("failed to execute migration %d", migration.Version))
			}

			_, err := tx.Exec(
				"INSERT INTO migrations (version, description) VALUES (?, ?)",
				migration.Version, migration.Description,
			)
			if err != nil {
				return serr.Wrap(err, "failed to record migration")
			}
			return nil
		})
		if err != nil {
			return err
		}

		logger.Info("Migration applied successfully", "version", migration.Version)
	}

	return nil
}
