package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avatarctic/health-cache/internal/core/domain/cache"
	"github.com/avatarctic/health-cache/internal/core/ports"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// HealthDataConfig holds the default retention of each kind of derived data.
type HealthDataConfig struct {
	HealthDataTTL time.Duration
	FamilyDataTTL time.Duration
	AnalysisTTL   time.Duration
}

// HealthDataService stores per-user health records, family summaries and
// analysis results under a fixed key scheme on top of a CacheService.
type HealthDataService struct {
	cache  ports.CacheService
	cfg    HealthDataConfig
	logger *logrus.Logger
	now    func() time.Time
	newID  func() string
}

var _ ports.HealthDataService = (*HealthDataService)(nil)

func NewHealthDataService(c ports.CacheService, cfg *HealthDataConfig, logger *logrus.Logger) *HealthDataService {
	conf := HealthDataConfig{
		HealthDataTTL: cache.DefaultTTL,
		FamilyDataTTL: 24 * time.Hour,
		AnalysisTTL:   cache.DefaultTTL,
	}
	if cfg != nil {
		if cfg.HealthDataTTL > 0 {
			conf.HealthDataTTL = cfg.HealthDataTTL
		}
		if cfg.FamilyDataTTL > 0 {
			conf.FamilyDataTTL = cfg.FamilyDataTTL
		}
		if cfg.AnalysisTTL > 0 {
			conf.AnalysisTTL = cfg.AnalysisTTL
		}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &HealthDataService{
		cache:  c,
		cfg:    conf,
		logger: logger,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
	}
}

func keyPart(name, v string) error {
	if v == "" || strings.ContainsAny(v, ":*") {
		return fmt.Errorf("%w: %s %q", cache.ErrInvalidKeyPart, name, v)
	}
	return nil
}

func orDefault(ttl, def time.Duration) time.Duration {
	if ttl == 0 {
		return def
	}
	return ttl
}

// CacheHealthData stores one health record and returns its key. Records of
// the same user and type never overwrite each other.
func (s *HealthDataService) CacheHealthData(ctx context.Context, userID, dataType string, data any, ttl time.Duration) (string, error) {
	if err := keyPart("user id", userID); err != nil {
		return "", err
	}
	if err := keyPart("data type", dataType); err != nil {
		return "", err
	}
	key := fmt.Sprintf("health:%s:%s:%d-%s", userID, dataType, s.now().UnixMilli(), s.newID())
	if err := s.cache.Set(ctx, key, data, orDefault(ttl, s.cfg.HealthDataTTL)); err != nil {
		return "", err
	}
	s.logger.WithFields(logrus.Fields{"user_id": userID, "data_type": dataType}).Debug("health data cached")
	return key, nil
}

// GetHealthData returns every cached record of a user and type.
func (s *HealthDataService) GetHealthData(ctx context.Context, userID, dataType string) ([]cache.KeyValue, error) {
	if err := keyPart("user id", userID); err != nil {
		return nil, err
	}
	if err := keyPart("data type", dataType); err != nil {
		return nil, err
	}
	return s.cache.GetByPattern(ctx, fmt.Sprintf("health:%s:%s:*", userID, dataType))
}

func familyKey(familyID string) string { return "family:" + familyID + ":summary" }

// CacheFamilyData stores the summary of a family, replacing any previous one.
func (s *HealthDataService) CacheFamilyData(ctx context.Context, familyID string, data any, ttl time.Duration) error {
	if err := keyPart("family id", familyID); err != nil {
		return err
	}
	return s.cache.Set(ctx, familyKey(familyID), data, orDefault(ttl, s.cfg.FamilyDataTTL))
}

func (s *HealthDataService) GetFamilyData(ctx context.Context, familyID string, dest any) (bool, error) {
	if err := keyPart("family id", familyID); err != nil {
		return false, err
	}
	return s.cache.Get(ctx, familyKey(familyID), dest)
}

func analysisKey(userID, analysisID string) string {
	return "analysis:" + userID + ":" + analysisID
}

// CacheAnalysis stores an analysis result of a user under its id.
func (s *HealthDataService) CacheAnalysis(ctx context.Context, userID, analysisID string, data any, ttl time.Duration) error {
	if err := keyPart("user id", userID); err != nil {
		return err
	}
	if err := keyPart("analysis id", analysisID); err != nil {
		return err
	}
	return s.cache.Set(ctx, analysisKey(userID, analysisID), data, orDefault(ttl, s.cfg.AnalysisTTL))
}

func (s *HealthDataService) GetAnalysis(ctx context.Context, userID, analysisID string, dest any) (bool, error) {
	if err := keyPart("user id", userID); err != nil {
		return false, err
	}
	if err := keyPart("analysis id", analysisID); err != nil {
		return false, err
	}
	return s.cache.Get(ctx, analysisKey(userID, analysisID), dest)
}

// ListAnalyses returns every cached analysis of a user.
func (s *HealthDataService) ListAnalyses(ctx context.Context, userID string) ([]cache.KeyValue, error) {
	if err := keyPart("user id", userID); err != nil {
		return nil, err
	}
	return s.cache.GetByPattern(ctx, "analysis:"+userID+":*")
}
