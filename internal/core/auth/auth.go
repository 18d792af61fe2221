// Package auth authenticates gRPC requests and attaches the caller's tenant
// to the request context.
package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// contextKey is a typed key for context values to avoid collisions.
type contextKey string

// tenantIDKey is the context key for storing authenticated tenant ID.
const tenantIDKey = contextKey("tenant_id")

// Metadata keys read by the interceptor.
const (
	APIKeyHeader   = "x-api-key"
	TenantIDHeader = "x-tenant-id"
)

// healthPrefix marks methods served without credentials.
const healthPrefix = "/grpc.health.v1.Health/"

type keyEntry struct {
	digest   []byte
	tenantID string
}

// Authenticator maps API keys to tenants. Keys are held only as HMAC
// digests under a per-process key and every lookup compares all digests.
type Authenticator struct {
	secret            []byte
	keys              []keyEntry
	allowTenantHeader bool
}

// NewAuthenticator builds an authenticator for apiKeys (key -> tenant id).
// With allowTenantHeader, requests without an API key may name their tenant
// in x-tenant-id metadata.
func NewAuthenticator(apiKeys map[string]string, allowTenantHeader bool) (*Authenticator, error) {
	secret, err := NewDigestKey()
	if err != nil {
		return nil, err
	}
	a := &Authenticator{
		secret:            secret,
		keys:              make([]keyEntry, 0, len(apiKeys)),
		allowTenantHeader: allowTenantHeader,
	}
	for key, tenant := range apiKeys {
		a.keys = append(a.keys, keyEntry{digest: ComputeHMAC(secret, key), tenantID: tenant})
	}
	return a, nil
}

// Authenticate returns the tenant owning apiKey.
func (a *Authenticator) Authenticate(apiKey string) (string, error) {
	computed := ComputeHMAC(a.secret, apiKey)

	tenantID := ""
	for _, k := range a.keys {
		if VerifyHMAC(k.digest, computed) {
			tenantID = k.tenantID
		}
	}
	if tenantID == "" {
		return "", ErrInvalidKey
	}
	return tenantID, nil
}

// tenantFromMetadata resolves the tenant of an incoming request.
func (a *Authenticator) tenantFromMetadata(md metadata.MD) (string, error) {
	if keys := md.Get(APIKeyHeader); len(keys) > 0 {
		return a.Authenticate(keys[0])
	}
	if a.allowTenantHeader {
		if tenants := md.Get(TenantIDHeader); len(tenants) > 0 && strings.TrimSpace(tenants[0]) != "" {
			return strings.TrimSpace(tenants[0]), nil
		}
	}
	return "", ErrMissingCredentials
}

// UnaryInterceptor returns a gRPC interceptor that authenticates requests.
// Health checks pass through unauthenticated.
func (a *Authenticator) UnaryInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if strings.HasPrefix(info.FullMethod, healthPrefix) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			return nil, status.Error(codes.Unauthenticated, "missing metadata")
		}

		tenantID, err := a.tenantFromMetadata(md)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}

		return handler(WithTenantID(ctx, tenantID), req)
	}
}

// WithTenantID returns a context carrying tenantID.
func WithTenantID(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, tenantIDKey, tenantID)
}

// TenantIDFromContext extracts tenant ID from context.
// Returns empty string if not found.
func TenantIDFromContext(ctx context.Context) string {
	if tenantID, ok := ctx.Value(tenantIDKey).(string); ok {
		return tenantID
	}
	return ""
}
