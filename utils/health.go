package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthStatus represents current status of external services. A nil
// dependency is reported as not configured rather than unhealthy.
type HealthStatus struct {
	Service   string    `json:"service"`
	Store     string    `json:"store"`
	Mongo     *bool     `json:"mongo,omitempty"`
	Redis     []bool    `json:"redis,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Healthy reports whether every configured dependency answered.
func (h HealthStatus) Healthy() bool {
	if h.Mongo != nil && !*h.Mongo {
		return false
	}
	for _, ok := range h.Redis {
		if !ok {
			return false
		}
	}
	return true
}

// HealthMonitor pings dependencies on an interval and keeps the last result.
type HealthMonitor struct {
	store        string
	redisClients []*redis.Client
	mongoClient  *mongo.Client
	interval     time.Duration

	mu      sync.RWMutex
	current HealthStatus
}

func NewHealthMonitor(store string, redisClients []*redis.Client, mongoClient *mongo.Client) *HealthMonitor {
	return &HealthMonitor{
		store:        store,
		redisClients: redisClients,
		mongoClient:  mongoClient,
		interval:     60 * time.Second,
		current:      HealthStatus{Service: ServiceName, Store: store},
	}
}

// Status returns latest stored health snapshot.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Check pings every dependency once and stores the result.
func (m *HealthMonitor) Check(ctx context.Context) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	status := HealthStatus{Service: ServiceName, Store: m.store, CheckedAt: time.Now()}
	for _, client := range m.redisClients {
		status.Redis = append(status.Redis, client.Ping(ctx).Err() == nil)
	}
	if m.mongoClient != nil {
		ok := m.mongoClient.Ping(ctx, nil) == nil
		status.Mongo = &ok
	}

	m.mu.Lock()
	m.current = status
	m.mu.Unlock()
	return status
}

// Start performs periodic health checks until ctx is done.
func (m *HealthMonitor) Start(ctx context.Context) {
	m.Check(ctx)
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.Check(ctx)
			}
		}
	}()
}
