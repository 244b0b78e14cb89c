package composables

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/tanzim-io/tanzim-sdk/pkg/access"
	"github.com/tanzim-io/tanzim-sdk/pkg/constants"
	"github.com/tanzim-io/tanzim-sdk/pkg/serrors"
)

// WithLogger returns a new context carrying the request-scoped logger entry.
func WithLogger(ctx context.Context, logger *logrus.Entry) context.Context {
	return context.WithValue(ctx, constants.LoggerKey, logger)
}

// UseLogger returns the logger from the context.
func UseLogger(ctx context.Context) *logrus.Entry {
	logger := ctx.Value(constants.LoggerKey)
	if logger == nil {
		panic("logger not found")
	}
	return logger.(*logrus.Entry)
}

// WithPrincipal attaches the decoded claims bundle to the context.
func WithPrincipal(ctx context.Context, p access.Principal) context.Context {
	return context.WithValue(ctx, constants.PrincipalKey, p)
}

// UsePrincipal returns the decoded claims bundle. Missing claims surface as
// an unauthorized error, never as a panic.
func UsePrincipal(ctx context.Context) (access.Principal, error) {
	v := ctx.Value(constants.PrincipalKey)
	if v == nil {
		return access.Principal{}, serrors.Unauthorized("missing or invalid claims")
	}
	p, ok := v.(access.Principal)
	if !ok {
		return access.Principal{}, serrors.Unauthorized("missing or invalid claims")
	}
	return p, nil
}
