package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

const (
	StateConnected     = "connected"
	StateDisconnected  = "disconnected"
	StateNotConfigured = "not configured"
)

type Status struct {
	Service  string `json:"service"`
	NATS     string `json:"nats"`
	Redis    string `json:"redis"`
	Sessions int    `json:"sessions"`
}

// SessionCounter reports how many game sessions or channels a process holds.
type SessionCounter interface {
	Count() int
}

type Checker struct {
	service     string
	nc          *nats.Conn
	redisClient *redis.Client
	counter     SessionCounter
}

// NewChecker builds a checker. Any dependency may be nil.
func NewChecker(service string, nc *nats.Conn, redisClient *redis.Client, counter SessionCounter) *Checker {
	return &Checker{
		service:     service,
		nc:          nc,
		redisClient: redisClient,
		counter:     counter,
	}
}

func (h *Checker) Check(ctx context.Context) *Status {
	status := &Status{
		Service: h.service,
	}

	if h.nc != nil && h.nc.IsConnected() {
		status.NATS = StateConnected
	} else {
		status.NATS = StateDisconnected
	}

	if h.redisClient != nil {
		redisCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()

		if err := h.redisClient.Ping(redisCtx).Err(); err == nil {
			status.Redis = StateConnected
		} else {
			status.Redis = StateDisconnected
		}
	} else {
		status.Redis = StateNotConfigured
	}

	if h.counter != nil {
		status.Sessions = h.counter.Count()
	}

	return status
}

// IsHealthy requires NATS and, when configured, Redis.
func (h *Checker) IsHealthy(ctx context.Context) bool {
	status := h.Check(ctx)
	return healthy(status)
}

func healthy(status *Status) bool {
	return status.NATS == StateConnected && status.Redis != StateDisconnected
}

func (h *Checker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if !healthy(status) {
		w.WriteHeader(http.StatusServiceUnavailable)
	} else {
		w.WriteHeader(http.StatusOK)
	}
	_ = json.NewEncoder(w).Encode(status)
}
