package grpc

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/clipshare/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Authenticator resolves bearer tokens to user IDs.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

type ctxKey string

const userIDKey ctxKey = "userID"

// authMetadataKey is the lower-cased Authorization header as gRPC metadata.
const authMetadataKey = "authorization"

// publicPrefixes are method prefixes reachable without a token.
var publicPrefixes = []string{
	"/grpc.health.v1.Health/",
	"/grpc.reflection.",
}

func isPublic(method string) bool {
	for _, p := range publicPrefixes {
		if strings.HasPrefix(method, p) {
			return true
		}
	}
	return false
}

// UserIDFromContext returns the user ID stored by the access token
// interceptor.
func UserIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if isPublic(info.FullMethod) {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(authMetadataKey); len(values) > 0 {
			accessToken = strings.TrimSpace(strings.TrimPrefix(values[0], common.BearerPrefix))
		}
	}
	if accessToken == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	if s.auth == nil {
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	userID, err := s.auth.Authenticate(ctx, accessToken)
	if err != nil {
		msg := "invalid token"
		if errors.Is(err, common.ErrTokenExpired) {
			msg = "token expired"
		}
		return nil, status.Error(codes.Unauthenticated, msg)
	}

	return handler(context.WithValue(ctx, userIDKey, userID), req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	args := []any{"method", info.FullMethod, "code", code.String(), "latency", time.Since(start)}
	if err != nil && code != codes.Unauthenticated && code != codes.NotFound {
		s.logger.Warn(ctx, "rpc failed", append(args, "error", err)...)
	} else {
		s.logger.Debug(ctx, "rpc", args...)
	}
	return resp, err
}
