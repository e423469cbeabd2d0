package main

import (
	"context"
	"log/slog"
	"time"

	portssvc "github.com/SscSPs/referral_vault/internal/core/ports/services"
)

// runMaintenance deletes expired sessions and reset tokens every interval
// until ctx is cancelled.
func runMaintenance(ctx context.Context, sessions portssvc.SessionAuthority, resets portssvc.PasswordResetSvc, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		logger.Info("Maintenance sweep disabled")
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweep(ctx, sessions, resets, logger)
		}
	}
}

func sweep(ctx context.Context, sessions portssvc.SessionAuthority, resets portssvc.PasswordResetSvc, logger *slog.Logger) {
	if n, err := sessions.SweepExpired(ctx); err != nil {
		logger.Error("Failed to sweep expired sessions", slog.String("error", err.Error()))
	} else if n > 0 {
		logger.Info("Expired sessions removed", slog.Int64("count", n))
	}

	if n, err := resets.SweepExpired(ctx); err != nil {
		logger.Error("Failed to sweep reset tokens", slog.String("error", err.Error()))
	} else if n > 0 {
		logger.Info("Expired reset tokens removed", slog.Int64("count", n))
	}
}
