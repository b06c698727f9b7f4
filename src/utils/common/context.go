package common

import (
	"context"

	"github.com/sonar-protocol/kiosk-syncer/src/utils/config"
)

type contextKey int

const (
	ContextConfig contextKey = iota
)

func SetConfig(ctx context.Context, config *config.Config) context.Context {
	return context.WithValue(ctx, ContextConfig, config)
}
