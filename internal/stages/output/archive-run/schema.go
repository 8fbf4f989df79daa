// internal/stages/output/archive-run/schema.go
package archiverun

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS mentorship_runs (
		run_id          UUID PRIMARY KEY,
		started_at      TIMESTAMPTZ NOT NULL,
		finished_at     TIMESTAMPTZ NOT NULL,
		input_path      TEXT NOT NULL,
		output_path     TEXT NOT NULL,
		provider        TEXT NOT NULL,
		model           TEXT NOT NULL,
		rubric_version  TEXT NOT NULL,
		rubric_checksum TEXT NOT NULL,
		participants    INTEGER NOT NULL,
		unresolved      INTEGER NOT NULL,
		matched         INTEGER NOT NULL,
		unmatched       INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS mentorship_matches (
		run_id           UUID NOT NULL REFERENCES mentorship_runs(run_id) ON DELETE CASCADE,
		position         INTEGER NOT NULL,
		mentor           TEXT NOT NULL,
		mentee           TEXT NOT NULL,
		reason_for       TEXT,
		reason_against   TEXT,
		alignment_score  DOUBLE PRECISION,
		over_capacity    BOOLEAN NOT NULL DEFAULT FALSE,
		validation_notes TEXT,
		PRIMARY KEY (run_id, position)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_mentorship_matches_mentor ON mentorship_matches(mentor)`,
}

const insertRun = `INSERT INTO mentorship_runs (
	run_id, started_at, finished_at, input_path, output_path, provider, model,
	rubric_version, rubric_checksum, participants, unresolved, matched, unmatched
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

const insertMatch = `INSERT INTO mentorship_matches (
	run_id, position, mentor, mentee, reason_for, reason_against,
	alignment_score, over_capacity, validation_notes
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
