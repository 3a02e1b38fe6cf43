// Copyright © 2026 Teradata Corporation - All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.

package session

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Start schedules the background sweep that evicts expired sessions.
func (s *Store) Start() error {
	spec := fmt.Sprintf("@every %ds", int(s.sweepEvery.Seconds()))
	if _, err := s.cronEngine.AddFunc(spec, func() {
		s.CleanupExpired()
	}); err != nil {
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}
	s.cronEngine.Start()

	s.logger.Info("Session sweeper started",
		zap.Duration("interval", s.sweepEvery),
		zap.Duration("ttl", s.ttl))
	return nil
}

// Stop halts the sweeper, waiting for an in-flight sweep to finish or
// the context to expire, whichever comes first.
func (s *Store) Stop(ctx context.Context) {
	cronCtx := s.cronEngine.Stop()
	select {
	case <-cronCtx.Done():
	case <-ctx.Done():
		s.logger.Warn("Session sweeper shutdown timeout")
	}
	s.logger.Info("Session store stopped")
}
