package grpcserver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/and161185/peakflow/internal/api"
	"github.com/and161185/peakflow/internal/metrics"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type fakeAddr struct{}

func (fakeAddr) Network() string { return "tcp" }
func (fakeAddr) String() string  { return "127.0.0.1:12345" }

func TestLoggingUnary_Passthrough(t *testing.T) {
	t.Parallel()

	log := zaptest.NewLogger(t)
	ic := LoggingUnary(log)

	ctx := context.Background()

	ctx = peer.NewContext(ctx, &peer.Peer{Addr: fakeAddr{}})

	h := func(ctx context.Context, req any) (any, error) { return "ok", nil }
	info := &grpc.UnaryServerInfo{FullMethod: "/peakflow.v1.PeakFlow/Method"}

	resp, err := ic(ctx, "req", info, h)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if s, _ := resp.(string); s != "ok" {
		t.Fatalf("resp mismatch: %v", resp)
	}

	wantErr := errors.New("boom")
	hErr := func(ctx context.Context, req any) (any, error) { return nil, wantErr }
	_, err = ic(ctx, "req", info, hErr)
	if !errors.Is(err, wantErr) {
		t.Fatalf("want original error, got: %v", err)
	}
}

func TestRecoverUnary_CatchesPanic(t *testing.T) {
	t.Parallel()

	log := zaptest.NewLogger(t)
	ic := RecoverUnary(log)

	ctx := context.Background()
	info := &grpc.UnaryServerInfo{FullMethod: "/peakflow.v1.PeakFlow/Panic"}

	panicH := func(ctx context.Context, req any) (any, error) {
		panic("oh no")
	}

	_, err := ic(ctx, "req", info, panicH)
	if err == nil {
		t.Fatalf("expected error from panic")
	}
	st, ok := status.FromError(err)
	if !ok || st.Code() != codes.Internal {
		t.Fatalf("want codes.Internal, got: %v", err)
	}
}

func TestRecoverUnary_NoPanicPassThrough(t *testing.T) {
	t.Parallel()

	log := zaptest.NewLogger(t)
	ic := RecoverUnary(log)

	ctx := context.Background()
	info := &grpc.UnaryServerInfo{FullMethod: "/peakflow.v1.PeakFlow/Ok"}

	h := func(ctx context.Context, req any) (any, error) { return 42, nil }

	resp, err := ic(ctx, "req", info, h)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if resp.(int) != 42 {
		t.Fatalf("resp mismatch: %v", resp)
	}
}

func TestLoggingUnary_DurationFieldDoesNotBlock(t *testing.T) {
	t.Parallel()

	log := zaptest.NewLogger(t)
	ic := LoggingUnary(log)

	ctx := context.Background()
	info := &grpc.UnaryServerInfo{FullMethod: "/peakflow.v1.PeakFlow/Sleep"}
	h := func(ctx context.Context, req any) (any, error) {
		time.Sleep(5 * time.Millisecond)
		return "done", nil
	}

	start := time.Now()
	resp, err := ic(ctx, "req", info, h)
	if err != nil || resp.(string) != "done" {
		t.Fatalf("unexpected result: %v, %v", resp, err)
	}
	if time.Since(start) < 5*time.Millisecond {
		t.Fatalf("duration should reflect handler time")
	}
}

func TestAuthUnary_PublicAndProtected(t *testing.T) {
	t.Parallel()

	key := []byte("k")
	ic := AuthUnary(key)
	var seen uuid.UUID
	h := func(ctx context.Context, req any) (any, error) {
		seen, _ = UserIDFromCtx(ctx)
		return "ok", nil
	}

	public := &grpc.UnaryServerInfo{FullMethod: api.FullMethod(api.MethodLogin)}
	if _, err := ic(context.Background(), "req", public, h); err != nil {
		t.Fatalf("public method rejected: %v", err)
	}

	protected := &grpc.UnaryServerInfo{FullMethod: api.FullMethod(api.MethodGetSummary)}
	_, err := ic(context.Background(), "req", protected, h)
	if st, ok := status.FromError(err); !ok || st.Code() != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated, got %v", err)
	}

	id := uuid.Must(uuid.NewV4())
	ctx := ctxWithAuth(jwtFor(t, id.String(), key, time.Minute))
	if _, err := ic(ctx, "req", protected, h); err != nil {
		t.Fatalf("valid token rejected: %v", err)
	}
	if seen != id {
		t.Fatalf("user id not stored: %s", seen)
	}

	ctx = ctxWithAuth(jwtFor(t, id.String(), []byte("other"), time.Minute))
	_, err = ic(ctx, "req", protected, h)
	if st, ok := status.FromError(err); !ok || st.Code() != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated for foreign key, got %v", err)
	}
}

func TestMetricsUnary_PassesThrough(t *testing.T) {
	t.Parallel()

	ic := MetricsUnary(metrics.New())
	info := &grpc.UnaryServerInfo{FullMethod: "/peakflow.v1.PeakFlow/Err"}
	wantErr := status.Error(codes.NotFound, "nope")
	_, err := ic(context.Background(), "req", info, func(context.Context, any) (any, error) { return nil, wantErr })
	if status.Code(err) != codes.NotFound {
		t.Fatalf("want NotFound, got %v", err)
	}
}

func TestRateLimitUnary_PerPeer(t *testing.T) {
	t.Parallel()

	ic := RateLimitUnary(0.001, 2, metrics.New())
	info := &grpc.UnaryServerInfo{FullMethod: "/peakflow.v1.PeakFlow/Login"}
	h := func(context.Context, any) (any, error) { return "ok", nil }
	ctx := peer.NewContext(context.Background(), &peer.Peer{Addr: fakeAddr{}})

	for i := 0; i < 2; i++ {
		if _, err := ic(ctx, "req", info, h); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	_, err := ic(ctx, "req", info, h)
	if st, ok := status.FromError(err); !ok || st.Code() != codes.ResourceExhausted {
		t.Fatalf("want ResourceExhausted, got %v", err)
	}

	other := peer.NewContext(context.Background(), &peer.Peer{Addr: loopbackAddr{}})
	if _, err := ic(other, "req", info, h); err == nil {
		t.Fatalf("peers on the same host share a bucket")
	}
}

type hostAddr string

func (hostAddr) Network() string  { return "tcp" }
func (h hostAddr) String() string { return string(h) + ":40000" }

func TestPeerLimiter_EvictsIdleHosts(t *testing.T) {
	t.Parallel()

	clock := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	pl := newPeerLimiter(0.001, 1)
	pl.now = func() time.Time { return clock }

	ic := rateLimitUnary(pl, nil)
	info := &grpc.UnaryServerInfo{FullMethod: "/peakflow.v1.PeakFlow/AddReading"}
	h := func(context.Context, any) (any, error) { return "ok", nil }
	from := func(host string) context.Context {
		return peer.NewContext(context.Background(), &peer.Peer{Addr: hostAddr(host)})
	}

	for _, host := range []string{"10.0.0.1", "10.0.0.2"} {
		if _, err := ic(from(host), "req", info, h); err != nil {
			t.Fatalf("%s: %v", host, err)
		}
	}
	if _, err := ic(from("10.0.0.1"), "req", info, h); status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("want ResourceExhausted, got %v", err)
	}

	clock = clock.Add(5 * time.Minute)
	_, _ = ic(from("10.0.0.2"), "req", info, h)

	clock = clock.Add(6 * time.Minute)
	if _, err := ic(from("10.0.0.3"), "req", info, h); err != nil {
		t.Fatalf("new host: %v", err)
	}
	if n := pl.size(); n != 2 {
		t.Fatalf("buckets=%d, want 2 after sweep", n)
	}

	// an evicted host starts over with a full bucket
	if _, err := ic(from("10.0.0.1"), "req", info, h); err != nil {
		t.Fatalf("evicted host still limited: %v", err)
	}
}
