package services

import (
	"context"

	"gorm.io/gorm"

	"issuesolver/internal/repositories"
)

// DbServices aggregates the repositories and the services built directly on
// them. Fields use plural names (e.g., Sessions) to align with Go conventions
// seen in service/store containers.
type DbServices struct {
	Sessions     ChatSessionService
	ModelConfigs ModelConfigService

	SessionRepo  repositories.ChatSessionRepository
	SolutionRepo repositories.IssueSolutionRepository
}

// NewDbServices constructs the service container using repositories backed by db.
func NewDbServices(db *gorm.DB) *DbServices {
	sessionRepo := repositories.NewChatSessionRepository(db)
	solutionRepo := repositories.NewIssueSolutionRepository(db)
	modelSettingRepo := repositories.NewModelSettingRepository(db)

	return &DbServices{
		Sessions:     NewChatSessionService(sessionRepo),
		ModelConfigs: NewModelConfigService(modelSettingRepo),
		SessionRepo:  sessionRepo,
		SolutionRepo: solutionRepo,
	}
}

// StartDbServices loads state the services keep in memory.
func (d *DbServices) StartDbServices(ctx context.Context) error {
	return d.ModelConfigs.Startup(ctx)
}
