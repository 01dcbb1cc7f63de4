package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"infusesecret/internal/constants"
	"infusesecret/internal/platform/config"
	"infusesecret/internal/platform/logger"
)

// Run 啟動 HTTP 伺服器，直到 ctx 結束後優雅關閉.
func Run(ctx context.Context, cfg *config.Config, srv *http.Server) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.LogInfof("伺服器正在監聽: %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logger.LogErrorf("伺服器啟動失敗: %v", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.LogInfof("收到關閉信號，正在優雅關閉伺服器...")

	grace := secondsOr(cfg.Server.ShutdownGrace, constants.DefaultShutdownGrace)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogErrorf("伺服器關閉失敗: %v", err)
		return err
	}

	logger.LogInfof("伺服器已優雅關閉")
	return nil
}

func secondsOr(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}
