package api

import (
	"log/slog"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/NVIDIA/nvnmos/internal/logging"
)

// HTTPLoggingMiddleware logs each NodeAPI request at a level derived from
// its response status, mirroring the teacher's request-logging middleware.
func HTTPLoggingMiddleware(ctx huma.Context, next func(huma.Context)) {
	start := time.Now()
	logger := logging.GetLogger("api")

	method := ctx.Method()
	path := ctx.URL().Path
	remoteAddr := ctx.RemoteAddr()

	next(ctx)

	duration := time.Since(start)
	status := ctx.Status()

	attrs := []slog.Attr{
		slog.String("method", method),
		slog.String("path", path),
		slog.String("remote_addr", remoteAddr),
		slog.Int("status", status),
		slog.Duration("duration", duration),
	}

	switch {
	case status >= 500:
		logger.LogAttrs(ctx.Context(), slog.LevelError, "NodeAPI request completed", attrs...)
	case status >= 400:
		logger.LogAttrs(ctx.Context(), slog.LevelWarn, "NodeAPI request completed", attrs...)
	default:
		logger.LogAttrs(ctx.Context(), slog.LevelInfo, "NodeAPI request completed", attrs...)
	}
}
