package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"issuesolver/internal/models"
	"issuesolver/internal/repositories"
)

type ChatSessionService interface {
	Create(ctx context.Context, userID, title string, mode models.SessionMode) (*models.ChatSession, error)
	List(ctx context.Context, userID string) ([]models.ChatSession, error)
	Get(ctx context.Context, userID, sessionID string) (*models.ChatSession, error)
	// Delete removes the session together with its issue solutions.
	Delete(ctx context.Context, userID, sessionID string) error
}

type chatSessionService struct {
	repo repositories.ChatSessionRepository
}

func NewChatSessionService(repo repositories.ChatSessionRepository) ChatSessionService {
	return &chatSessionService{repo: repo}
}

func (s *chatSessionService) Create(ctx context.Context, userID, title string, mode models.SessionMode) (*models.ChatSession, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, validationError("user id is required")
	}
	switch mode {
	case "":
		mode = models.ModeIssueSolver
	case models.ModeChat, models.ModeIssueSolver:
	default:
		return nil, validationError("unknown session mode %q", mode)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = "New Chat"
	}

	session := &models.ChatSession{
		ID:     uuid.NewString(),
		UserID: userID,
		Title:  title,
		Mode:   mode,
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

func (s *chatSessionService) List(ctx context.Context, userID string) ([]models.ChatSession, error) {
	sessions, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	if sessions == nil {
		sessions = []models.ChatSession{}
	}
	return sessions, nil
}

func (s *chatSessionService) Get(ctx context.Context, userID, sessionID string) (*models.ChatSession, error) {
	session, err := s.repo.GetOwned(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, ErrNotFound
	}
	return session, nil
}

func (s *chatSessionService) Delete(ctx context.Context, userID, sessionID string) error {
	removed, err := s.repo.DeleteOwned(ctx, sessionID, userID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if !removed {
		return ErrNotFound
	}
	return nil
}
