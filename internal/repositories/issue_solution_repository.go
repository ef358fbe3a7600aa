package repositories

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"issuesolver/internal/models"
)

type IssueSolutionRepository interface {
	Create(ctx context.Context, solution *models.IssueSolution) error
	// GetOwned returns the row only if its session belongs to userID.
	GetOwned(ctx context.Context, id, userID string) (*models.IssueSolution, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.IssueSolution, error)
	// Advance applies updates only while the row is in progress and in one of
	// the from steps. It reports whether a row was changed.
	Advance(ctx context.Context, id string, from []models.SolutionStep, updates map[string]interface{}) (bool, error)
}

type issueSolutionRepository struct {
	db *gorm.DB
}

func NewIssueSolutionRepository(db *gorm.DB) IssueSolutionRepository {
	return &issueSolutionRepository{db: db}
}

func (r *issueSolutionRepository) Create(ctx context.Context, solution *models.IssueSolution) error {
	if solution == nil {
		return fmt.Errorf("issue solution is required")
	}
	return r.db.WithContext(ctx).Create(solution).Error
}

func (r *issueSolutionRepository) GetOwned(ctx context.Context, id, userID string) (*models.IssueSolution, error) {
	owned := r.db.Model(&models.ChatSession{}).Select("id").Where("user_id = ?", userID)

	var solution models.IssueSolution
	err := r.db.WithContext(ctx).
		Where("id = ? AND session_id IN (?)", id, owned).
		Take(&solution).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &solution, nil
}

func (r *issueSolutionRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.IssueSolution, error) {
	var solutions []models.IssueSolution
	q := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&solutions).Error; err != nil {
		return nil, err
	}
	return solutions, nil
}

func (r *issueSolutionRepository) Advance(ctx context.Context, id string, from []models.SolutionStep, updates map[string]interface{}) (bool, error) {
	if len(from) == 0 {
		return false, fmt.Errorf("at least one source step is required")
	}
	res := r.db.WithContext(ctx).
		Model(&models.IssueSolution{}).
		Where("id = ? AND status = ? AND current_step IN ?", id, models.StatusInProgress, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
