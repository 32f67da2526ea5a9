package worker

import (
	"context"
	"log/slog"
	"time"
)

// TokenSweeper revokes expired-but-active refresh tokens and reports how many
// rows were touched. Satisfied by service.AuthService.
type TokenSweeper interface {
	CleanupExpiredTokens() (int64, error)
}

// TokenCleanup periodically sweeps expired refresh tokens. The sweep is
// hygiene: correctness never depends on it, because lookups check expiry
// themselves.
type TokenCleanup struct {
	sweeper  TokenSweeper
	interval time.Duration
	logger   *slog.Logger
}

// NewTokenCleanup creates a cleanup task running at the given interval.
func NewTokenCleanup(sweeper TokenSweeper, interval time.Duration, logger *slog.Logger) *TokenCleanup {
	return &TokenCleanup{
		sweeper:  sweeper,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
// Intended to be handed to Pool.Submit.
func (t *TokenCleanup) Run(ctx context.Context) {
	t.logger.Info("🧹 [Cleanup] Token cleanup scheduler started", "interval", t.interval)

	t.sweep()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("🛑 [Cleanup] Token cleanup scheduler stopped")
			return
		case <-ticker.C:
			t.sweep()
		}
	}
}

// sweep runs one cleanup pass. Errors are logged, never fatal: the next tick
// retries.
func (t *TokenCleanup) sweep() {
	swept, err := t.sweeper.CleanupExpiredTokens()
	if err != nil {
		t.logger.Error("❌ [Cleanup] Token sweep failed", "error", err)
		return
	}
	if swept > 0 {
		t.logger.Info("🧹 [Cleanup] Revoked expired refresh tokens", "count", swept)
	}
}
