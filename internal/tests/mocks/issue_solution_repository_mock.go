package mocks

import (
	"context"

	"issuesolver/internal/models"
)

type IssueSolutionRepositoryMock struct {
	CreateFunc        func(ctx context.Context, solution *models.IssueSolution) error
	GetOwnedFunc      func(ctx context.Context, id, userID string) (*models.IssueSolution, error)
	ListBySessionFunc func(ctx context.Context, sessionID string, limit int) ([]models.IssueSolution, error)
	AdvanceFunc       func(ctx context.Context, id string, from []models.SolutionStep, updates map[string]interface{}) (bool, error)
}

func (m *IssueSolutionRepositoryMock) Create(ctx context.Context, solution *models.IssueSolution) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, solution)
	}
	return nil
}

func (m *IssueSolutionRepositoryMock) GetOwned(ctx context.Context, id, userID string) (*models.IssueSolution, error) {
	if m.GetOwnedFunc != nil {
		return m.GetOwnedFunc(ctx, id, userID)
	}
	return nil, nil
}

func (m *IssueSolutionRepositoryMock) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.IssueSolution, error) {
	if m.ListBySessionFunc != nil {
		return m.ListBySessionFunc(ctx, sessionID, limit)
	}
	return nil, nil
}

func (m *IssueSolutionRepositoryMock) Advance(ctx context.Context, id string, from []models.SolutionStep, updates map[string]interface{}) (bool, error) {
	if m.AdvanceFunc != nil {
		return m.AdvanceFunc(ctx, id, from, updates)
	}
	return true, nil
}
