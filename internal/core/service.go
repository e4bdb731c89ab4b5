package core

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// CheckerService is the single-evaluation entrypoint consumed by the HTTP
// API, the job registry and the CLI. It fronts the pipeline with an optional
// result cache keyed by address.
type CheckerService struct {
	pipeline     *Pipeline
	cache        CacheRepository
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
}

// NewCheckerService creates the checker service.
func NewCheckerService(
	pipeline *Pipeline,
	cache CacheRepository,
	logger *zap.Logger,
	cacheEnabled bool,
	cacheTTL time.Duration,
) *CheckerService {
	return &CheckerService{
		pipeline:     pipeline,
		cache:        cache,
		logger:       logger,
		cacheEnabled: cacheEnabled,
		cacheTTL:     cacheTTL,
	}
}

// Check evaluates one address, serving from cache when a live entry exists.
// Like the pipeline itself it always returns a structured result.
func (s *CheckerService) Check(ctx context.Context, req AssessRequest) *PipelineResult {
	if s.cacheEnabled && s.cache != nil {
		if entry, err := s.cache.Get(ctx, req.Email); err == nil && entry.Result != nil {
			s.logger.Debug("Cache hit for address", zap.String("email", req.Email))
			return entry.Result
		}
	}

	result := s.pipeline.AssessEmail(ctx, req)

	// Pre-filter-only verdicts depend entirely on the caller's rule lists,
	// so only terminal verdicts are cached.
	if s.cacheEnabled && s.cache != nil && IsTerminal(result.Status) {
		now := time.Now()
		entry := &CacheEntry{
			Email:     result.Email,
			Result:    result,
			LastSeen:  now,
			ExpiresAt: now.Add(s.cacheTTL),
		}
		if err := s.cache.Set(ctx, entry); err != nil {
			s.logger.Error("Failed to update cache", zap.Error(err))
		}
	}

	return result
}
