package grpcserver

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/and161185/peakflow/internal/api"
	"github.com/and161185/peakflow/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// LoggingUnary returns a unary server interceptor for structured logging.
func LoggingUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := next(ctx, req)
		code := status.Code(err)

		var remote string
		if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
			remote = p.Addr.String()
		}

		// metadata only, payloads carry health data
		log.Info("grpc",
			zap.String("method", info.FullMethod),
			zap.String("code", code.String()),
			zap.Duration("dur", time.Since(start)),
			zap.String("peer", remote),
		)
		return resp, err
	}
}

// RecoverUnary returns a unary server interceptor that recovers from panics.
func RecoverUnary(log *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("panic",
					zap.Any("reason", r),
					zap.ByteString("stack", debug.Stack()),
					zap.String("method", info.FullMethod),
				)
				err = status.Error(codes.Internal, "internal")
			}
		}()
		return next(ctx, req)
	}
}

// AuthUnary verifies the bearer token of every non-public method and stores the user ID in ctx.
func AuthUnary(signKey []byte) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if api.PublicMethods[info.FullMethod] {
			return next(ctx, req)
		}
		tok, err := bearerTokenFromMD(ctx)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, "no auth")
		}
		id, err := parseToken(tok, signKey)
		if err != nil {
			return nil, status.Error(codes.Unauthenticated, err.Error())
		}
		return next(WithUserID(ctx, id), req)
	}
}

// MetricsUnary records count, duration and in-flight gauge of every RPC.
func MetricsUnary(m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		done := m.RPCStarted(info.FullMethod)
		resp, err := next(ctx, req)
		done(status.Code(err).String())
		return resp, err
	}
}

// peerIdleTTL is how long an unused peer bucket survives before a sweep drops it.
const peerIdleTTL = 10 * time.Minute

type peerBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// peerLimiter keeps one token bucket per remote host and forgets idle hosts.
type peerLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*peerBucket
	rps       rate.Limit
	burst     int
	idle      time.Duration
	now       func() time.Time
	lastSweep time.Time
}

func newPeerLimiter(rps float64, burst int) *peerLimiter {
	return &peerLimiter{
		buckets: make(map[string]*peerBucket),
		rps:     rate.Limit(rps),
		burst:   burst,
		idle:    peerIdleTTL,
		now:     time.Now,
	}
}

func (p *peerLimiter) get(key string) *rate.Limiter {
	p.mu.Lock()
	defer p.mu.Unlock()
	now := p.now()
	if now.Sub(p.lastSweep) >= p.idle {
		p.sweep(now)
	}
	b, ok := p.buckets[key]
	if !ok {
		b = &peerBucket{lim: rate.NewLimiter(p.rps, p.burst)}
		p.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim
}

// sweep drops buckets idle for longer than p.idle. Caller holds p.mu.
func (p *peerLimiter) sweep(now time.Time) {
	for k, b := range p.buckets {
		if now.Sub(b.lastSeen) > p.idle {
			delete(p.buckets, k)
		}
	}
	p.lastSweep = now
}

func (p *peerLimiter) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.buckets)
}

// RateLimitUnary rejects RPCs of a peer exceeding rps with bursts up to burst.
// m may be nil.
func RateLimitUnary(rps float64, burst int, m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return rateLimitUnary(newPeerLimiter(rps, burst), m)
}

func rateLimitUnary(pl *peerLimiter, m *metrics.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, next grpc.UnaryHandler) (any, error) {
		if !pl.get(remoteIP(ctx)).Allow() {
			if m != nil {
				m.RateLimited(info.FullMethod)
			}
			return nil, status.Error(codes.ResourceExhausted, "too many requests")
		}
		return next(ctx, req)
	}
}
