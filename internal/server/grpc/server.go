// Package grpcserver exposes the peak-flow tracker gRPC API handlers.
package grpcserver

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/and161185/peakflow/internal/api"
	"github.com/and161185/peakflow/internal/convert"
	"github.com/and161185/peakflow/internal/errs"
	"github.com/and161185/peakflow/internal/metrics"
	"github.com/and161185/peakflow/internal/service"
	"github.com/gofrs/uuid/v5"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// ResetRequestedMessage is returned for every reset request, known email or not.
const ResetRequestedMessage = "If an account exists, a reset code has been sent"

// Server wires services into gRPC handlers.
type Server struct {
	api.UnimplementedPeakFlowServer
	auth    service.AuthService
	reset   service.ResetService
	tracker service.TrackerService
	signKey []byte
	metrics *metrics.Metrics
}

// Option customizes Server.
type Option func(*Server)

// WithMetrics records domain counters on m.
func WithMetrics(m *metrics.Metrics) Option { return func(s *Server) { s.metrics = m } }

// New constructs a gRPC server with injected services.
func New(auth service.AuthService, reset service.ResetService, tracker service.TrackerService, signKey []byte, opts ...Option) *Server {
	s := &Server{auth: auth, reset: reset, tracker: tracker, signKey: signKey}
	for _, o := range opts {
		o(s)
	}
	return s
}

// toStatus maps service errors onto gRPC codes.
func toStatus(op string, err error) error {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, errs.ErrAuthRequired):
		return status.Error(codes.Unauthenticated, "no auth")
	case errors.Is(err, errs.ErrUnauthorized):
		return status.Error(codes.Unauthenticated, "bad credentials")
	case errors.Is(err, errs.ErrRateLimited):
		return status.Error(codes.ResourceExhausted, "rate limited")
	case errors.Is(err, errs.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, "already exists")
	case errors.Is(err, errs.ErrCodeInvalid):
		return status.Error(codes.PermissionDenied, err.Error())
	case errs.IsPersistence(err):
		return status.Errorf(codes.Unavailable, "%s: storage unavailable", op)
	default:
		return status.Errorf(codes.Internal, "%s: %v", op, err)
	}
}

// --- Auth ---

// Register creates a new user account.
func (s *Server) Register(ctx context.Context, req *api.RegisterRequest) (*api.RegisterResponse, error) {
	if req.Email == "" || req.Password == "" {
		return nil, status.Error(codes.InvalidArgument, "empty email/password")
	}
	userID, err := s.auth.Register(ctx, req.Email, req.Password, req.Name)
	if err != nil {
		return nil, toStatus("register", err)
	}
	return &api.RegisterResponse{UserID: userID}, nil
}

func remoteIP(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// Login authenticates a user and returns an access token.
func (s *Server) Login(ctx context.Context, req *api.LoginRequest) (*api.LoginResponse, error) {
	tok, u, err := s.auth.LoginWithIP(ctx, req.Email, req.Password, remoteIP(ctx))
	if err != nil {
		return nil, toStatus("login", err)
	}
	return &api.LoginResponse{
		AccessToken: tok.AccessToken,
		ExpiresAt:   tok.ExpiresAt,
		UserID:      u.ID.String(),
		Name:        u.Name,
	}, nil
}

// RequestPasswordReset sends a reset code. The reply never reveals whether the email is known.
func (s *Server) RequestPasswordReset(ctx context.Context, req *api.RequestPasswordResetRequest) (*api.RequestPasswordResetResponse, error) {
	if err := s.reset.RequestCode(ctx, req.Email); err != nil {
		s.countReset("request", "error")
		return nil, toStatus("request reset", err)
	}
	s.countReset("request", "ok")
	return &api.RequestPasswordResetResponse{Message: ResetRequestedMessage}, nil
}

// ResetPassword consumes a reset code and sets a new password.
func (s *Server) ResetPassword(ctx context.Context, req *api.ResetPasswordRequest) (*api.ResetPasswordResponse, error) {
	if err := s.reset.ResetPassword(ctx, req.Email, req.Code, req.NewPassword); err != nil {
		s.countReset("confirm", "error")
		return nil, toStatus("reset password", err)
	}
	s.countReset("confirm", "ok")
	return &api.ResetPasswordResponse{}, nil
}

// --- Readings ---

// AddReading stores a reading dated in the caller's zone.
func (s *Server) AddReading(ctx context.Context, req *api.AddReadingRequest) (*api.AddReadingResponse, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "no auth")
	}
	rd, err := s.tracker.AddReading(ctx, userID, req.Timezone, convert.FromAddReading(req))
	if err != nil {
		return nil, toStatus("add reading", err)
	}
	if s.metrics != nil {
		s.metrics.ReadingAdded()
	}
	return &api.AddReadingResponse{Reading: convert.ToAPIReading(rd)}, nil
}

// DeleteReading removes one reading by id.
func (s *Server) DeleteReading(ctx context.Context, req *api.DeleteReadingRequest) (*api.DeleteReadingResponse, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "no auth")
	}
	id, err := uuid.FromString(req.ID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "bad id")
	}
	if err := s.tracker.DeleteReading(ctx, userID, id); err != nil {
		return nil, toStatus("delete reading", err)
	}
	return &api.DeleteReadingResponse{}, nil
}

// ListReadings returns readings in an optional date range, newest first.
func (s *Server) ListReadings(ctx context.Context, req *api.ListReadingsRequest) (*api.ListReadingsResponse, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "no auth")
	}
	rs, err := s.tracker.ListReadings(ctx, userID, req.From, req.To)
	if err != nil {
		return nil, toStatus("list readings", err)
	}
	return &api.ListReadingsResponse{Readings: convert.ToAPIReadings(rs)}, nil
}

// GetSummary returns the dashboard view.
func (s *Server) GetSummary(ctx context.Context, req *api.GetSummaryRequest) (*api.GetSummaryResponse, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "no auth")
	}
	sum, err := s.tracker.Summary(ctx, userID, req.Timezone)
	if err != nil {
		return nil, toStatus("summary", err)
	}
	if sum.Alert != nil && s.metrics != nil {
		s.metrics.AlertRaised()
	}
	return convert.ToAPISummary(sum), nil
}

// GetTrend returns chart points of the last Days days.
func (s *Server) GetTrend(ctx context.Context, req *api.GetTrendRequest) (*api.GetTrendResponse, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "no auth")
	}
	pts, err := s.tracker.Trend(ctx, userID, req.Timezone, req.Days)
	if err != nil {
		return nil, toStatus("trend", err)
	}
	return &api.GetTrendResponse{Points: convert.ToAPITrend(pts)}, nil
}

// --- Settings ---

// GetSettings returns the saved or default settings.
func (s *Server) GetSettings(ctx context.Context, _ *api.GetSettingsRequest) (*api.GetSettingsResponse, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "no auth")
	}
	st, err := s.tracker.GetSettings(ctx, userID)
	if err != nil {
		return nil, toStatus("get settings", err)
	}
	return &api.GetSettingsResponse{Settings: convert.ToAPISettings(st)}, nil
}

// SaveSettings replaces the settings.
func (s *Server) SaveSettings(ctx context.Context, req *api.SaveSettingsRequest) (*api.SaveSettingsResponse, error) {
	userID, err := s.userID(ctx)
	if err != nil {
		return nil, status.Error(codes.Unauthenticated, "no auth")
	}
	st, err := s.tracker.SaveSettings(ctx, userID, convert.FromAPISettings(req.Settings))
	if err != nil {
		return nil, toStatus("save settings", err)
	}
	return &api.SaveSettingsResponse{Settings: convert.ToAPISettings(st)}, nil
}

func (s *Server) countReset(step, outcome string) {
	if s.metrics != nil {
		s.metrics.PasswordReset(step, outcome)
	}
}

// userID prefers the identity resolved by AuthUnary and falls back to parsing the token.
func (s *Server) userID(ctx context.Context) (uuid.UUID, error) {
	if id, ok := UserIDFromCtx(ctx); ok {
		return id, nil
	}
	return s.userIDFromCtx(ctx)
}

// userIDFromCtx: extract "authorization: Bearer <JWT>", verify HS256, return sub as UUID.
func (s *Server) userIDFromCtx(ctx context.Context) (uuid.UUID, error) {
	tok, err := bearerTokenFromMD(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	return parseToken(tok, s.signKey)
}

func parseToken(tok string, signKey []byte) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(tok, &claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return signKey, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil || !parsed.Valid {
		return uuid.Nil, errors.New("invalid token")
	}

	v := jwt.NewValidator(jwt.WithLeeway(30 * time.Second))
	if err := v.Validate(&claims); err != nil {
		return uuid.Nil, errors.New("token expired or not valid yet")
	}

	id, err := uuid.FromString(claims.Subject)
	if err != nil {
		return uuid.Nil, errors.New("bad subject")
	}
	return id, nil
}

func bearerTokenFromMD(ctx context.Context) (string, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return "", errors.New("no metadata")
	}
	for _, v := range md.Get("authorization") {
		v = strings.TrimSpace(v)
		if len(v) >= 7 && strings.EqualFold(v[:7], "bearer ") {
			t := strings.TrimSpace(v[7:])
			if t != "" {
				return t, nil
			}
		}
	}
	return "", errors.New("no bearer token")
}
