package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/Shubhams-here/Dabba-Drop/internal/models"
)

// ISettingsService exposes per-endpoint configuration overrides.
type ISettingsService interface {
	GetEndpointConfig(ctx context.Context, endpoint string) *models.APIEndpointConfig
}

const apiEndpointsCollection = "api_endpoints_config"

// settingsCacheTTL bounds how stale an override read from Mongo can be.
var settingsCacheTTL = time.Minute

type cachedEndpointConfig struct {
	cfg       *models.APIEndpointConfig
	fetchedAt time.Time
}

// settingsService implements ISettingsService with a small in-memory
// cache in front of the collection so rate limiting never waits on a
// database round trip.
type settingsService struct {
	db    *mongo.Database
	mu    sync.RWMutex
	cache map[string]cachedEndpointConfig
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(db *mongo.Database) ISettingsService {
	return &settingsService{
		db:    db,
		cache: make(map[string]cachedEndpointConfig),
	}
}

// GetEndpointConfig returns the stored override for an endpoint, or nil
// when there is none (callers then use the configured defaults). Lookup
// errors log and behave like a missing override.
func (s *settingsService) GetEndpointConfig(ctx context.Context, endpoint string) *models.APIEndpointConfig {
	s.mu.RLock()
	entry, ok := s.cache[endpoint]
	s.mu.RUnlock()
	if ok && time.Since(entry.fetchedAt) < settingsCacheTTL {
		return entry.cfg
	}

	cfg, err := s.fetchEndpointConfig(ctx, endpoint)
	if err != nil {
		log.Printf("Failed to fetch endpoint config for %s: %v", endpoint, err)
		if ok {
			return entry.cfg // stale beats nothing
		}
		return nil
	}

	s.mu.Lock()
	s.cache[endpoint] = cachedEndpointConfig{cfg: cfg, fetchedAt: time.Now()}
	s.mu.Unlock()
	return cfg
}

func (s *settingsService) fetchEndpointConfig(ctx context.Context, endpoint string) (*models.APIEndpointConfig, error) {
	var cfg models.APIEndpointConfig
	err := s.db.Collection(apiEndpointsCollection).
		FindOne(ctx, bson.M{"endpoint": endpoint}).
		Decode(&cfg)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch endpoint config: %w", err)
	}
	return &cfg, nil
}
