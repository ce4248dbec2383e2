package cache

import (
	"context"
	"errors"
	"log/slog"
)

// logGetError logs read failures other than a plain miss.
func logGetError(ctx context.Context, logger *slog.Logger, scope, key string, err error) {
	if errors.Is(err, ErrCacheNotFound) || errors.Is(err, ErrCacheNotAvailable) {
		return
	}
	logger.WarnContext(ctx, "Cache get error, treating as miss",
		"error", err,
		"scope", scope,
		"key", key)
}

// logSetError logs failed writes; a failed write never fails the caller.
func logSetError(ctx context.Context, logger *slog.Logger, scope, key string, err error) {
	if err == nil {
		return
	}
	logger.ErrorContext(ctx, "Cache set error",
		"error", err,
		"scope", scope,
		"key", key)
}
