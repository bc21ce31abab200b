package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "peakflow.v1.PeakFlow"

// Method names.
const (
	MethodRegister             = "Register"
	MethodLogin                = "Login"
	MethodRequestPasswordReset = "RequestPasswordReset"
	MethodResetPassword        = "ResetPassword"
	MethodAddReading           = "AddReading"
	MethodDeleteReading        = "DeleteReading"
	MethodListReadings         = "ListReadings"
	MethodGetSummary           = "GetSummary"
	MethodGetTrend             = "GetTrend"
	MethodGetSettings          = "GetSettings"
	MethodSaveSettings         = "SaveSettings"
)

// FullMethod returns "/peakflow.v1.PeakFlow/<method>".
func FullMethod(method string) string { return "/" + ServiceName + "/" + method }

// PublicMethods lists full method names callable without a bearer token.
var PublicMethods = map[string]bool{
	FullMethod(MethodRegister):             true,
	FullMethod(MethodLogin):                true,
	FullMethod(MethodRequestPasswordReset): true,
	FullMethod(MethodResetPassword):        true,
}

// PeakFlowServer is the server API of peakflow.v1.PeakFlow.
type PeakFlowServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	RequestPasswordReset(context.Context, *RequestPasswordResetRequest) (*RequestPasswordResetResponse, error)
	ResetPassword(context.Context, *ResetPasswordRequest) (*ResetPasswordResponse, error)
	AddReading(context.Context, *AddReadingRequest) (*AddReadingResponse, error)
	DeleteReading(context.Context, *DeleteReadingRequest) (*DeleteReadingResponse, error)
	ListReadings(context.Context, *ListReadingsRequest) (*ListReadingsResponse, error)
	GetSummary(context.Context, *GetSummaryRequest) (*GetSummaryResponse, error)
	GetTrend(context.Context, *GetTrendRequest) (*GetTrendResponse, error)
	GetSettings(context.Context, *GetSettingsRequest) (*GetSettingsResponse, error)
	SaveSettings(context.Context, *SaveSettingsRequest) (*SaveSettingsResponse, error)
}

// UnimplementedPeakFlowServer answers every method with codes.Unimplemented.
type UnimplementedPeakFlowServer struct{}

func unimplemented(m string) error { return status.Errorf(codes.Unimplemented, "method %s not implemented", m) }

func (UnimplementedPeakFlowServer) Register(context.Context, *RegisterRequest) (*RegisterResponse, error) {
	return nil, unimplemented(MethodRegister)
}
func (UnimplementedPeakFlowServer) Login(context.Context, *LoginRequest) (*LoginResponse, error) {
	return nil, unimplemented(MethodLogin)
}
func (UnimplementedPeakFlowServer) RequestPasswordReset(context.Context, *RequestPasswordResetRequest) (*RequestPasswordResetResponse, error) {
	return nil, unimplemented(MethodRequestPasswordReset)
}
func (UnimplementedPeakFlowServer) ResetPassword(context.Context, *ResetPasswordRequest) (*ResetPasswordResponse, error) {
	return nil, unimplemented(MethodResetPassword)
}
func (UnimplementedPeakFlowServer) AddReading(context.Context, *AddReadingRequest) (*AddReadingResponse, error) {
	return nil, unimplemented(MethodAddReading)
}
func (UnimplementedPeakFlowServer) DeleteReading(context.Context, *DeleteReadingRequest) (*DeleteReadingResponse, error) {
	return nil, unimplemented(MethodDeleteReading)
}
func (UnimplementedPeakFlowServer) ListReadings(context.Context, *ListReadingsRequest) (*ListReadingsResponse, error) {
	return nil, unimplemented(MethodListReadings)
}
func (UnimplementedPeakFlowServer) GetSummary(context.Context, *GetSummaryRequest) (*GetSummaryResponse, error) {
	return nil, unimplemented(MethodGetSummary)
}
func (UnimplementedPeakFlowServer) GetTrend(context.Context, *GetTrendRequest) (*GetTrendResponse, error) {
	return nil, unimplemented(MethodGetTrend)
}
func (UnimplementedPeakFlowServer) GetSettings(context.Context, *GetSettingsRequest) (*GetSettingsResponse, error) {
	return nil, unimplemented(MethodGetSettings)
}
func (UnimplementedPeakFlowServer) SaveSettings(context.Context, *SaveSettingsRequest) (*SaveSettingsResponse, error) {
	return nil, unimplemented(MethodSaveSettings)
}

// unary builds a MethodDesc that decodes Req and dispatches through the interceptor chain.
func unary[Req any, Resp any](method string, call func(PeakFlowServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(PeakFlowServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(method)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(PeakFlowServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes peakflow.v1.PeakFlow for grpc.Server.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PeakFlowServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRegister, PeakFlowServer.Register),
		unary(MethodLogin, PeakFlowServer.Login),
		unary(MethodRequestPasswordReset, PeakFlowServer.RequestPasswordReset),
		unary(MethodResetPassword, PeakFlowServer.ResetPassword),
		unary(MethodAddReading, PeakFlowServer.AddReading),
		unary(MethodDeleteReading, PeakFlowServer.DeleteReading),
		unary(MethodListReadings, PeakFlowServer.ListReadings),
		unary(MethodGetSummary, PeakFlowServer.GetSummary),
		unary(MethodGetTrend, PeakFlowServer.GetTrend),
		unary(MethodGetSettings, PeakFlowServer.GetSettings),
		unary(MethodSaveSettings, PeakFlowServer.SaveSettings),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "peakflow/v1/peakflow.proto",
}

// RegisterPeakFlowServer registers srv on s.
func RegisterPeakFlowServer(s grpc.ServiceRegistrar, srv PeakFlowServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// PeakFlowClient is the client API of peakflow.v1.PeakFlow.
type PeakFlowClient interface {
	Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error)
	Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error)
	RequestPasswordReset(ctx context.Context, in *RequestPasswordResetRequest, opts ...grpc.CallOption) (*RequestPasswordResetResponse, error)
	ResetPassword(ctx context.Context, in *ResetPasswordRequest, opts ...grpc.CallOption) (*ResetPasswordResponse, error)
	AddReading(ctx context.Context, in *AddReadingRequest, opts ...grpc.CallOption) (*AddReadingResponse, error)
	DeleteReading(ctx context.Context, in *DeleteReadingRequest, opts ...grpc.CallOption) (*DeleteReadingResponse, error)
	ListReadings(ctx context.Context, in *ListReadingsRequest, opts ...grpc.CallOption) (*ListReadingsResponse, error)
	GetSummary(ctx context.Context, in *GetSummaryRequest, opts ...grpc.CallOption) (*GetSummaryResponse, error)
	GetTrend(ctx context.Context, in *GetTrendRequest, opts ...grpc.CallOption) (*GetTrendResponse, error)
	GetSettings(ctx context.Context, in *GetSettingsRequest, opts ...grpc.CallOption) (*GetSettingsResponse, error)
	SaveSettings(ctx context.Context, in *SaveSettingsRequest, opts ...grpc.CallOption) (*SaveSettingsResponse, error)
}

type peakFlowClient struct {
	cc grpc.ClientConnInterface
}

// NewPeakFlowClient returns a client that always uses the JSON codec.
func NewPeakFlowClient(cc grpc.ClientConnInterface) PeakFlowClient {
	return &peakFlowClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *peakFlowClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, MethodRegister, in, opts)
}
func (c *peakFlowClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}
func (c *peakFlowClient) RequestPasswordReset(ctx context.Context, in *RequestPasswordResetRequest, opts ...grpc.CallOption) (*RequestPasswordResetResponse, error) {
	return invoke[RequestPasswordResetResponse](ctx, c.cc, MethodRequestPasswordReset, in, opts)
}
func (c *peakFlowClient) ResetPassword(ctx context.Context, in *ResetPasswordRequest, opts ...grpc.CallOption) (*ResetPasswordResponse, error) {
	return invoke[ResetPasswordResponse](ctx, c.cc, MethodResetPassword, in, opts)
}
func (c *peakFlowClient) AddReading(ctx context.Context, in *AddReadingRequest, opts ...grpc.CallOption) (*AddReadingResponse, error) {
	return invoke[AddReadingResponse](ctx, c.cc, MethodAddReading, in, opts)
}
func (c *peakFlowClient) DeleteReading(ctx context.Context, in *DeleteReadingRequest, opts ...grpc.CallOption) (*DeleteReadingResponse, error) {
	return invoke[DeleteReadingResponse](ctx, c.cc, MethodDeleteReading, in, opts)
}
func (c *peakFlowClient) ListReadings(ctx context.Context, in *ListReadingsRequest, opts ...grpc.CallOption) (*ListReadingsResponse, error) {
	return invoke[ListReadingsResponse](ctx, c.cc, MethodListReadings, in, opts)
}
func (c *peakFlowClient) GetSummary(ctx context.Context, in *GetSummaryRequest, opts ...grpc.CallOption) (*GetSummaryResponse, error) {
	return invoke[GetSummaryResponse](ctx, c.cc, MethodGetSummary, in, opts)
}
func (c *peakFlowClient) GetTrend(ctx context.Context, in *GetTrendRequest, opts ...grpc.CallOption) (*GetTrendResponse, error) {
	return invoke[GetTrendResponse](ctx, c.cc, MethodGetTrend, in, opts)
}
func (c *peakFlowClient) GetSettings(ctx context.Context, in *GetSettingsRequest, opts ...grpc.CallOption) (*GetSettingsResponse, error) {
	return invoke[GetSettingsResponse](ctx, c.cc, MethodGetSettings, in, opts)
}
func (c *peakFlowClient) SaveSettings(ctx context.Context, in *SaveSettingsRequest, opts ...grpc.CallOption) (*SaveSettingsResponse, error) {
	return invoke[SaveSettingsResponse](ctx, c.cc, MethodSaveSettings, in, opts)
}
