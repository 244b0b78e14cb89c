package health

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// Probe pings the database pool on a fixed interval so connectivity loss is
// visible before the next request hits it. It is side-channel maintenance,
// not part of any authorization decision.
type Probe struct {
	pool     *pgxpool.Pool
	interval time.Duration
	logger   *logrus.Entry
}

func NewProbe(pool *pgxpool.Pool, interval time.Duration, logger *logrus.Logger) *Probe {
	return &Probe{
		pool:     pool,
		interval: interval,
		logger:   logger.WithField("component", "health"),
	}
}

// Run blocks until ctx is cancelled, pinging the pool each interval.
func (p *Probe) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Check(ctx); err != nil {
				p.logger.WithError(err).Warn("database probe failed")
			}
		}
	}
}

// Check performs a single connectivity probe.
func (p *Probe) Check(ctx context.Context) error {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return p.pool.Ping(probeCtx)
}
