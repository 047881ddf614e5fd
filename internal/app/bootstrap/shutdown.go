// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the background workers, drains webhook deliveries, and
// disconnects MongoDB, in that order, so nothing writes after the client
// closes.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if svc := deps.svc; svc != nil {
		svc.stop(ctx, logger)
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}

func (s *services) stop(ctx context.Context, logger *zap.Logger) {
	if s.cleanup != nil {
		s.cleanup.Stop()
	}
	if s.dispatcher != nil {
		if err := s.dispatcher.Stop(ctx); err != nil {
			logger.Warn("webhook dispatcher did not drain", zap.Error(err))
		}
	}
	if s.loginLimiter != nil {
		s.loginLimiter.Stop()
	}
	if s.otpLimiter != nil {
		s.otpLimiter.Stop()
	}
	if s.joinLimiter != nil {
		s.joinLimiter.Stop()
	}
}
