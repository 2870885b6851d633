package repository

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

// Dictionary tables are unique on name_key, filled with NameKey(name);
// lower() and NOCASE in sqlite fold ASCII only.
var sqliteSchemaV1 = []string{`
CREATE TABLE IF NOT EXISTS companies (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  name_key TEXT NOT NULL UNIQUE,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);`, `
CREATE TABLE IF NOT EXISTS skills (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  name_key TEXT NOT NULL UNIQUE,
  type TEXT NOT NULL CHECK (type IN ('technical', 'soft', 'domain')),
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);`, `
CREATE TABLE IF NOT EXISTS job_applications (
  id TEXT PRIMARY KEY,
  company_id INTEGER NOT NULL REFERENCES companies(id),
  position_name TEXT NOT NULL DEFAULT '',
  position_level TEXT,
  location TEXT,
  remote_status TEXT,
  compensation_min REAL,
  compensation_max REAL,
  compensation_currency TEXT,
  raw_json TEXT NOT NULL,
  feedback TEXT,
  tailored_bullets TEXT,
  ats_score REAL,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);`, `
CREATE TABLE IF NOT EXISTS job_skills (
  job_id TEXT NOT NULL REFERENCES job_applications(id),
  skill_id INTEGER NOT NULL REFERENCES skills(id),
  priority INTEGER NOT NULL DEFAULT 3 CHECK (priority BETWEEN 1 AND 5),
  is_must_have INTEGER NOT NULL DEFAULT 0,
  years_required INTEGER,
  proficiency_level TEXT,
  context TEXT,
  ordinal INTEGER NOT NULL DEFAULT 0,
  UNIQUE (job_id, skill_id)
);`,
	`CREATE INDEX IF NOT EXISTS idx_job_applications_company ON job_applications(company_id);`,
	`CREATE INDEX IF NOT EXISTS idx_job_applications_created ON job_applications(created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_job_skills_skill ON job_skills(skill_id);`,
}

var postgresSchemaV1 = []string{`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`, `
CREATE TABLE IF NOT EXISTS companies (
  id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
  name TEXT NOT NULL,
  name_key TEXT NOT NULL UNIQUE,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`, `
CREATE TABLE IF NOT EXISTS skills (
  id BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
  name TEXT NOT NULL,
  name_key TEXT NOT NULL UNIQUE,
  type TEXT NOT NULL CHECK (type IN ('technical', 'soft', 'domain')),
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`, `
CREATE TABLE IF NOT EXISTS job_applications (
  id TEXT PRIMARY KEY,
  company_id BIGINT NOT NULL REFERENCES companies(id),
  position_name TEXT NOT NULL DEFAULT '',
  position_level TEXT,
  location TEXT,
  remote_status TEXT,
  compensation_min DOUBLE PRECISION,
  compensation_max DOUBLE PRECISION,
  compensation_currency TEXT,
  raw_json TEXT NOT NULL,
  feedback TEXT,
  tailored_bullets TEXT,
  ats_score DOUBLE PRECISION,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`, `
CREATE TABLE IF NOT EXISTS job_skills (
  job_id TEXT NOT NULL REFERENCES job_applications(id),
  skill_id BIGINT NOT NULL REFERENCES skills(id),
  priority INTEGER NOT NULL DEFAULT 3 CHECK (priority BETWEEN 1 AND 5),
  is_must_have BOOLEAN NOT NULL DEFAULT FALSE,
  years_required INTEGER,
  proficiency_level TEXT,
  context TEXT,
  ordinal INTEGER NOT NULL DEFAULT 0,
  UNIQUE (job_id, skill_id)
);`,
	`CREATE INDEX IF NOT EXISTS idx_job_applications_company ON job_applications(company_id);`,
	`CREATE INDEX IF NOT EXISTS idx_job_applications_created ON job_applications(created_at);`,
	`CREATE INDEX IF NOT EXISTS idx_job_skills_skill ON job_skills(skill_id);`,
}

// Migrate creates the schema once; it is safe to call on every start.
func (d *DB) Migrate(ctx context.Context) error {
	tx, err := d.SQL.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	v, err := d.currentVersion(ctx, tx)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	stmts := sqliteSchemaV1
	if d.Driver == DriverPostgres {
		stmts = postgresSchemaV1
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate v%d: %w", schemaVersion, err)
		}
	}

	if d.Driver == DriverPostgres {
		_, err = tx.ExecContext(ctx, `INSERT INTO schema_migrations(version) VALUES ($1) ON CONFLICT DO NOTHING`, schemaVersion)
	} else {
		_, err = tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d;`, schemaVersion))
	}
	if err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	d.logger.Info("database migrated", "driver", d.Driver, "version", schemaVersion)
	return nil
}

func (d *DB) currentVersion(ctx context.Context, tx *sql.Tx) (int, error) {
	var v int
	if d.Driver != DriverPostgres {
		err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v)
		return v, err
	}
	var exists bool
	if err := tx.QueryRowContext(ctx, `SELECT to_regclass('schema_migrations') IS NOT NULL`).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, nil
	}
	err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&v)
	return v, err
}
