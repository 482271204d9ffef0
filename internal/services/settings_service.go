package services

import (
	"context"
	"time"

	"example.com/tileflow/services/planning/config"
	"example.com/tileflow/services/planning/internal/cache"
	"example.com/tileflow/services/planning/internal/models"
	"example.com/tileflow/services/planning/internal/planning"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// settingsCacheTTL bounds how stale a cached policy can get
const settingsCacheTTL = 5 * time.Minute

// SettingStore is the repository contract the settings service needs
type SettingStore interface {
	List(ctx context.Context) ([]models.Setting, error)
	Upsert(ctx context.Context, setting *models.Setting) error
}

// PolicyCache is the cache contract for the settings map
type PolicyCache interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// SettingsService loads and updates the replenishment policy. Reads go
// through Redis; every write invalidates the cached map.
type SettingsService struct {
	repo     SettingStore
	cache    PolicyCache
	defaults planning.Policy
}

// NewSettingsService creates a new settings service
func NewSettingsService(repo SettingStore, policyCache PolicyCache, cfg config.PlanningConfig) *SettingsService {
	return &SettingsService{
		repo:     repo,
		cache:    policyCache,
		defaults: PolicyDefaults(cfg),
	}
}

// PolicyDefaults maps the static configuration onto the policy the
// calculators run with when a settings key has never been written
func PolicyDefaults(cfg config.PlanningConfig) planning.Policy {
	return planning.Policy{
		LeadTimeDays:         cfg.LeadTimeDays,
		SafetyStockZScore:    cfg.SafetyStockZScore,
		OrderCycleDays:       cfg.OrderCycleDays,
		VelocityWindowWeeks:  cfg.VelocityWindowWeeks,
		ContainerMaxPallets:  cfg.ContainerMaxPallets,
		ContainerMaxWeightKg: cfg.ContainerMaxWeightKg,
		ContainerMaxM2:       cfg.ContainerMaxM2,
		M2PerPallet:          cfg.M2PerPallet,
		WeightPerM2Kg:        cfg.WeightPerM2Kg,
		BoatMinContainers:    cfg.BoatMinContainers,
		BoatMaxContainers:    cfg.BoatMaxContainers,
		WarehouseMaxPallets:  cfg.WarehouseMaxPallets,
		WarehouseMaxM2:       cfg.WarehouseMaxM2,
		StockoutCriticalDays: cfg.StockoutCriticalDays,
		StockoutWarningDays:  cfg.StockoutWarningDays,
		FreeDaysCritical:     cfg.FreeDaysCritical,
		FreeDaysWarning:      cfg.FreeDaysWarning,
		BookingBufferDays:    cfg.BookingBufferDays,
		OverstockMultiple:    cfg.OverstockMultiple,
		ContainerMinFillPct:  cfg.ContainerMinFillPct,
	}
}

// LoadStore assembles the flat settings map, preferring the cached copy
func (s *SettingsService) LoadStore(ctx context.Context) (planning.MapStore, error) {
	if s.cache != nil {
		var cached map[string]string
		if err := s.cache.Get(ctx, cache.SettingsCacheKey(), &cached); err == nil {
			return planning.MapStore(cached), nil
		}
	}

	settings, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load settings")
	}

	store := make(planning.MapStore, len(settings))
	for _, setting := range settings {
		store[setting.Key] = setting.Value
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.SettingsCacheKey(), map[string]string(store), settingsCacheTTL); err != nil {
			log.Warn().Err(err).Msg("Failed to cache settings map")
		}
	}

	return store, nil
}

// LoadPolicy overlays the stored settings onto the configured defaults
func (s *SettingsService) LoadPolicy(ctx context.Context) (planning.Policy, error) {
	store, err := s.LoadStore(ctx)
	if err != nil {
		return planning.Policy{}, err
	}
	return planning.LoadPolicy(store, s.defaults)
}

// Update writes one setting and invalidates the cached map. The value is
// validated against the configured defaults before it is persisted, so a
// malformed value can never poison the next policy load.
func (s *SettingsService) Update(ctx context.Context, key, value string, description *string) error {
	trial := planning.MapStore{key: value}
	if _, err := planning.LoadPolicy(trial, s.defaults); err != nil {
		return err
	}

	setting := &models.Setting{
		ID:          uuid.New(),
		Key:         key,
		Value:       value,
		Description: description,
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		return errors.Wrap(err, "failed to upsert setting")
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, cache.SettingsCacheKey(), cache.StockoutSummaryCacheKey()); err != nil {
			log.Warn().Err(err).Msg("Failed to invalidate settings cache")
		}
	}

	log.Info().Str("key", key).Str("value", value).Msg("Setting updated")
	return nil
}

// List gets all settings rows
func (s *SettingsService) List(ctx context.Context) ([]models.Setting, error) {
	return s.repo.List(ctx)
}
