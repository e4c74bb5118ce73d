package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/hearthgate/hearth/hearth/database/models"
	"github.com/hearthgate/hearth/hearth/economy"
)

// JobRepository reads job reference data and owns user job assignments.
type JobRepository interface {
	GetAll(ctx context.Context) ([]*models.Job, error)
	GetByID(ctx context.Context, id int64) (*models.Job, error)
	// GetUserJob returns the user's held job with Job and Currency relations
	// loaded, or economy.ErrNoJob when unemployed.
	GetUserJob(ctx context.Context, userID string) (*models.UserJob, error)
	// Assign creates the assignment; economy.ErrConflict when one exists.
	Assign(ctx context.Context, userJob *models.UserJob) error
	// Remove deletes the assignment; economy.ErrNoJob when none held.
	Remove(ctx context.Context, userID string) error
}

type jobRepository struct {
	db *bun.DB
}

func NewJobRepository(db *bun.DB) JobRepository {
	return &jobRepository{db: db}
}

func (r *jobRepository) GetAll(ctx context.Context) ([]*models.Job, error) {
	var jobs []*models.Job
	err := r.db.NewSelect().
		Model(&jobs).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs: %w", err)
	}
	return jobs, nil
}

func (r *jobRepository) GetByID(ctx context.Context, id int64) (*models.Job, error) {
	job := new(models.Job)
	err := r.db.NewSelect().
		Model(job).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, economy.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (r *jobRepository) GetUserJob(ctx context.Context, userID string) (*models.UserJob, error) {
	userJob := new(models.UserJob)
	err := r.db.NewSelect().
		Model(userJob).
		Relation("Job").
		Relation("Currency").
		Where("uj.user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, economy.ErrNoJob
		}
		return nil, fmt.Errorf("failed to get user job: %w", err)
	}
	return userJob, nil
}

func (r *jobRepository) Assign(ctx context.Context, userJob *models.UserJob) error {
	userJob.AssignedAt = time.Now()
	_, err := r.db.NewInsert().
		Model(userJob).
		Exec(ctx)
	if err != nil {
		// The unique index on user_id is the last line of defense against
		// two concurrent applications.
		if strings.Contains(err.Error(), "duplicate key") {
			return economy.ErrConflict
		}
		return fmt.Errorf("failed to assign job: %w", err)
	}
	return nil
}

func (r *jobRepository) Remove(ctx context.Context, userID string) error {
	result, err := r.db.NewDelete().
		Model((*models.UserJob)(nil)).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to remove user job: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return economy.ErrNoJob
	}
	return nil
}
