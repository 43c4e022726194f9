package repository

import (
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/GTDGit/catalog_import/internal/models"
)

// ImportRunRepository handles data access for import runs.
type ImportRunRepository struct {
	db *sqlx.DB
}

// NewImportRunRepository creates a new ImportRunRepository.
func NewImportRunRepository(db *sqlx.DB) *ImportRunRepository {
	return &ImportRunRepository{db: db}
}

// Create inserts a run in its initial state.
func (r *ImportRunRepository) Create(run *models.ImportRun) error {
	const q = `
        INSERT INTO catalog_import_runs (id, status, "trigger", total, succeeded, failed, started_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)`

	stmt, err := r.db.Preparex(q)
	if err != nil {
		return err
	}
	defer stmt.Close()

	_, err = stmt.Exec(run.ID, run.Status, run.Trigger, run.Total, run.Succeeded, run.Failed, run.StartedAt)
	return err
}

// Finish stores the final counters, error and report of a run.
func (r *ImportRunRepository) Finish(run *models.ImportRun) error {
	const q = `
        UPDATE catalog_import_runs SET
            status = $2,
            total = $3,
            succeeded = $4,
            failed = $5,
            error = $6,
            report = $7,
            finished_at = $8
        WHERE id = $1`

	_, err := r.db.Exec(q, run.ID, run.Status, run.Total, run.Succeeded, run.Failed, run.Error, run.Report, run.FinishedAt)
	return err
}

// GetByID returns a single run by id, or sql.ErrNoRows.
func (r *ImportRunRepository) GetByID(id string) (*models.ImportRun, error) {
	const q = `SELECT * FROM catalog_import_runs WHERE id = $1 LIMIT 1`
	var run models.ImportRun
	if err := r.db.Get(&run, q, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return &run, nil
}

// List returns a page of runs without their reports, newest first, and the total count.
func (r *ImportRunRepository) List(limit, offset int) ([]models.ImportRun, int, error) {
	var total int
	if err := r.db.Get(&total, `SELECT COUNT(1) FROM catalog_import_runs`); err != nil {
		return nil, 0, err
	}

	const q = `
        SELECT id, status, "trigger", total, succeeded, failed, error, NULL AS report, started_at, finished_at
        FROM catalog_import_runs
        ORDER BY started_at DESC
        LIMIT $1 OFFSET $2`
	runs := []models.ImportRun{}
	if err := r.db.Select(&runs, q, limit, offset); err != nil {
		return nil, 0, err
	}
	return runs, total, nil
}
