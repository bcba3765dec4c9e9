package pathruntime

import (
	"context"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"rialto/internal/app/ports"
	"rialto/internal/domain/sim"
)

type Config struct {
	// WalkSpeed in meters per second.
	WalkSpeed float64
	// MaxDistance beyond which a destination counts as unreachable.
	MaxDistance float64
	CacheTTL    time.Duration
}

func DefaultConfig() Config {
	return Config{
		WalkSpeed:   1.4,
		MaxDistance: 15000,
		CacheTTL:    10 * time.Minute,
	}
}

// Provider is the in-process pathfinding collaborator: straight-line
// routes at walking speed with a TTL route cache. The cache object is
// owned here, never global.
type Provider struct {
	cfg    Config
	routes *gocache.Cache
}

func NewProvider(cfg Config) *Provider {
	if cfg.WalkSpeed <= 0 {
		cfg.WalkSpeed = DefaultConfig().WalkSpeed
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultConfig().CacheTTL
	}
	return &Provider{
		cfg:    cfg,
		routes: gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
	}
}

func (p *Provider) FindPath(_ context.Context, from, to sim.Position) (sim.Route, error) {
	key := routeKey(from, to)
	if cached, ok := p.routes.Get(key); ok {
		return cached.(sim.Route), nil
	}

	dist := sim.DistanceMeters(from, to)
	if p.cfg.MaxDistance > 0 && dist > p.cfg.MaxDistance {
		return sim.Route{}, ports.ErrUnreachable
	}
	duration := int(dist / p.cfg.WalkSpeed)
	if duration < 1 {
		duration = 1
	}
	route := sim.Route{
		Points:          []sim.Position{from, to},
		DurationSeconds: duration,
	}
	p.routes.SetDefault(key, route)
	return route, nil
}

func routeKey(from, to sim.Position) string {
	return fmt.Sprintf("%.5f,%.5f>%.5f,%.5f", from.Lat, from.Lng, to.Lat, to.Lng)
}
