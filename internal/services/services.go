// Package services holds the request-scoped application services sitting
// between the HTTP handlers and the data layer. Every service re-scopes its
// queries by the authenticated account and reports failures through the
// shared aggregate error vocabulary so the edge can map them uniformly.
package services

import (
	"context"

	"github.com/google/uuid"

	dataagg "github.com/replyhive/replyhive-backend/internal/data/aggregates"
	domainagg "github.com/replyhive/replyhive-backend/internal/domain/aggregates"
	"github.com/replyhive/replyhive-backend/internal/pkg/ctxutil"
)

// serviceError normalizes repo and infrastructure failures into coded
// errors. Errors that already carry a code pass through untouched.
func serviceError(op string, err error) error {
	if err == nil {
		return nil
	}
	if domainagg.CodeOf(err) != "" {
		return err
	}
	return dataagg.MapError(op, err)
}

// requireRequestData pulls the authenticated identity attached by the auth
// middleware, failing closed when it is absent.
func requireRequestData(ctx context.Context, op string) (*ctxutil.RequestData, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil || rd.AccountID == uuid.Nil {
		return nil, domainagg.NewError(domainagg.CodeUnauthorized, op, "no authenticated account in context", nil)
	}
	return rd, nil
}
