package mocks

import (
	"context"

	"issuesolver/internal/models"
)

type ChatSessionRepositoryMock struct {
	CreateFunc      func(ctx context.Context, session *models.ChatSession) error
	GetOwnedFunc    func(ctx context.Context, id, userID string) (*models.ChatSession, error)
	ListByUserFunc  func(ctx context.Context, userID string) ([]models.ChatSession, error)
	DeleteOwnedFunc func(ctx context.Context, id, userID string) (bool, error)
}

func (m *ChatSessionRepositoryMock) Create(ctx context.Context, session *models.ChatSession) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, session)
	}
	return nil
}

func (m *ChatSessionRepositoryMock) GetOwned(ctx context.Context, id, userID string) (*models.ChatSession, error) {
	if m.GetOwnedFunc != nil {
		return m.GetOwnedFunc(ctx, id, userID)
	}
	return nil, nil
}

func (m *ChatSessionRepositoryMock) ListByUser(ctx context.Context, userID string) ([]models.ChatSession, error) {
	if m.ListByUserFunc != nil {
		return m.ListByUserFunc(ctx, userID)
	}
	return nil, nil
}

func (m *ChatSessionRepositoryMock) DeleteOwned(ctx context.Context, id, userID string) (bool, error) {
	if m.DeleteOwnedFunc != nil {
		return m.DeleteOwnedFunc(ctx, id, userID)
	}
	return false, nil
}
