package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/recruit-assessment-service/internal/cache"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/events"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/formsession"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/repositories"
	"github.com/SAP-F-2025/recruit-assessment-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	Session SessionConfig

	// Replay local drafts into the primary store during Initialize
	SyncLocalDraftsOnStart bool
	DefaultTimeout         time.Duration
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	repo         repositories.Repository
	cacheManager *cache.CacheManager
	publisher    events.EventPublisher
	logger       *slog.Logger
	validator    *validator.Validator
	config       ServiceManagerConfig

	assessmentService AssessmentService
	sessionService    SessionService
	exportService     ExportService

	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

func NewServiceManager(repo repositories.Repository, cacheManager *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator, config ServiceManagerConfig) ServiceManager {
	return &serviceManager{
		repo:         repo,
		cacheManager: cacheManager,
		publisher:    publisher,
		logger:       logger,
		validator:    validator,
		config:       config,
	}
}

// NewDefaultServiceManager creates a service manager with default session policies
func NewDefaultServiceManager(repo repositories.Repository, cacheManager *cache.CacheManager, publisher events.EventPublisher, logger *slog.Logger, validator *validator.Validator) ServiceManager {
	config := ServiceManagerConfig{
		Session: SessionConfig{
			TTL:     cache.SessionCacheConfig.TTL,
			Options: formsession.DefaultOptions(),
		},
		SyncLocalDraftsOnStart: true,
		DefaultTimeout:         30 * time.Second,
	}
	return NewServiceManager(repo, cacheManager, publisher, logger, validator, config)
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}
	if sm.repo == nil {
		return fmt.Errorf("repository is required")
	}

	sm.logger.Info("Initializing service manager")

	if sm.cacheManager == nil {
		sm.cacheManager = cache.NewCacheManager(nil)
	}

	sm.assessmentService = NewAssessmentService(sm.repo, sm.logger, sm.validator)
	sm.logger.Info("Assessment service initialized")

	sm.sessionService = NewSessionService(sm.repo, sm.cacheManager, sm.publisher, sm.logger, sm.validator, sm.config.Session)
	sm.logger.Info("Session service initialized",
		"validate_on_change", sm.config.Session.Options.ValidateOnChange,
		"validate_on_blur", sm.config.Session.Options.ValidateOnBlur,
		"gate_forward_navigation", sm.config.Session.Options.GateForwardNavigation)

	sm.exportService = NewExportService(sm.repo, sm.logger)
	sm.logger.Info("Export service initialized")

	if sm.config.SyncLocalDraftsOnStart {
		syncCtx := ctx
		if sm.config.DefaultTimeout > 0 {
			var cancel context.CancelFunc
			syncCtx, cancel = context.WithTimeout(ctx, sm.config.DefaultTimeout)
			defer cancel()
		}
		if _, err := sm.sessionService.SyncLocalDrafts(syncCtx); err != nil {
			sm.logger.Warn("Local drafts could not be synced", "error", err)
		}
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")
	return nil
}

func (sm *serviceManager) Assessment() AssessmentService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.assessmentService
}

func (sm *serviceManager) Session() SessionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.sessionService
}

func (sm *serviceManager) Export() ExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.exportService
}

// HealthCheck reports the status of the backing stores
func (sm *serviceManager) HealthCheck(ctx context.Context) map[string]string {
	status := map[string]string{"database": "healthy", "cache": "healthy"}

	if err := sm.repo.Ping(ctx); err != nil {
		status["database"] = err.Error()
	}
	if sm.cacheManager == nil {
		status["cache"] = "disabled"
	} else if err := sm.cacheManager.HealthCheck(ctx); err != nil {
		status["cache"] = err.Error()
	}
	return status
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.publisher != nil {
		if err := sm.publisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")
	return nil
}
