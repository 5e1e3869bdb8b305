package ports

import (
	"context"
	"time"

	"github.com/avatarctic/health-cache/internal/core/domain/cache"
)

// HealthDataService stores health records, family summaries and analyses
// under a fixed key scheme. A zero ttl selects the per-kind default.
type HealthDataService interface {
	CacheHealthData(ctx context.Context, userID, dataType string, data any, ttl time.Duration) (string, error)
	GetHealthData(ctx context.Context, userID, dataType string) ([]cache.KeyValue, error)
	CacheFamilyData(ctx context.Context, familyID string, data any, ttl time.Duration) error
	GetFamilyData(ctx context.Context, familyID string, dest any) (bool, error)
	CacheAnalysis(ctx context.Context, userID, analysisID string, data any, ttl time.Duration) error
	GetAnalysis(ctx context.Context, userID, analysisID string, dest any) (bool, error)
	ListAnalyses(ctx context.Context, userID string) ([]cache.KeyValue, error)
}
