package service

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/bolsamaster/bolsamaster-backend/internal/apperrors"
	"github.com/bolsamaster/bolsamaster-backend/internal/database"
	"github.com/bolsamaster/bolsamaster-backend/internal/model"
	"github.com/bolsamaster/bolsamaster-backend/internal/repository"
	"github.com/bolsamaster/bolsamaster-backend/internal/version"
)

// SystemService handles system-related operations
type SystemService struct {
	db         *sql.DB
	outboxRepo *repository.OutboxRepository
	providers  []string
	features   map[string]bool
}

// NewSystemService creates a new SystemService.
// outboxRepo is nil when no mirror is configured; providers lists the active
// quote providers in chain order.
func NewSystemService(db *sql.DB, outboxRepo *repository.OutboxRepository, providers []string, features map[string]bool) *SystemService {
	return &SystemService{
		db:         db,
		outboxRepo: outboxRepo,
		providers:  providers,
		features:   features,
	}
}

// CheckHealth checks the health of the system
func (s *SystemService) CheckHealth() error {
	return database.HealthCheck(s.db)
}

// CheckVersion reports the application version, the schema version and the
// enabled features. MigrationNeeded is set when the database is behind the
// migrations embedded in this binary.
func (s *SystemService) CheckVersion(ctx context.Context) (model.VersionInfo, error) {
	current, latest, err := database.SchemaVersion(ctx, s.db)
	if err != nil {
		return model.VersionInfo{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetVersionInfo, err)
	}

	info := model.VersionInfo{
		AppVersion: version.Version,
		DbVersion:  strconv.FormatInt(current, 10),
		Features:   map[string]bool{},
		Providers:  []string{},
	}
	for name, enabled := range s.features {
		info.Features[name] = enabled
	}
	info.Providers = append(info.Providers, s.providers...)

	if current < latest {
		info.MigrationNeeded = true
		msg := fmt.Sprintf("database schema %d is behind %d, restart the server to migrate", current, latest)
		info.MigrationMessage = &msg
	}

	if s.outboxRepo != nil {
		pending, err := s.outboxRepo.Count(ctx)
		if err != nil {
			return model.VersionInfo{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToGetVersionInfo, err)
		}
		info.PendingSync = pending
	}
	return info, nil
}
