package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// RequestData is the authenticated identity attached to the request context
// by the auth middleware. Services re-scope every query by AccountID; a nil
// RequestData means the request never passed RequireAuth.
type RequestData struct {
	AccountID   uuid.UUID
	Email       string
	TokenString string
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(ctx, requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	val := ctx.Value(requestDataKey{})
	if rd, ok := val.(*RequestData); ok {
		return rd
	}
	return nil
}
