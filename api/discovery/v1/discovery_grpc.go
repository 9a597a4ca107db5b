package discoveryv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "discokeeper.discovery.v1.Discovery"

const (
	Discovery_GetSettings_FullMethodName              = "/" + ServiceName + "/GetSettings"
	Discovery_LinkAccount_FullMethodName              = "/" + ServiceName + "/LinkAccount"
	Discovery_AddIdentifier_FullMethodName            = "/" + ServiceName + "/AddIdentifier"
	Discovery_RemoveIdentifier_FullMethodName         = "/" + ServiceName + "/RemoveIdentifier"
	Discovery_SetCandidate_FullMethodName             = "/" + ServiceName + "/SetCandidate"
	Discovery_SubmitIdentityServer_FullMethodName     = "/" + ServiceName + "/SubmitIdentityServer"
	Discovery_DisconnectIdentityServer_FullMethodName = "/" + ServiceName + "/DisconnectIdentityServer"
	Discovery_AcceptTerms_FullMethodName              = "/" + ServiceName + "/AcceptTerms"
	Discovery_ShareIdentifier_FullMethodName          = "/" + ServiceName + "/ShareIdentifier"
	Discovery_RevokeIdentifier_FullMethodName         = "/" + ServiceName + "/RevokeIdentifier"
	Discovery_CheckVerification_FullMethodName        = "/" + ServiceName + "/CheckVerification"
	Discovery_SubmitPhoneToken_FullMethodName         = "/" + ServiceName + "/SubmitPhoneToken"
	Discovery_Resume_FullMethodName                   = "/" + ServiceName + "/Resume"
	Discovery_Pause_FullMethodName                    = "/" + ServiceName + "/Pause"
)

// DiscoveryServer is the server API of the Discovery service.
type DiscoveryServer interface {
	GetSettings(context.Context, *GetSettingsRequest) (*GetSettingsResponse, error)
	LinkAccount(context.Context, *LinkAccountRequest) (*LinkAccountResponse, error)
	AddIdentifier(context.Context, *IdentifierRequest) (*IdentifierResponse, error)
	RemoveIdentifier(context.Context, *IdentifierRequest) (*IdentifierResponse, error)
	SetCandidate(context.Context, *SetCandidateRequest) (*SetCandidateResponse, error)
	SubmitIdentityServer(context.Context, *SubmitIdentityServerRequest) (*ChangeResponse, error)
	DisconnectIdentityServer(context.Context, *DisconnectIdentityServerRequest) (*ChangeResponse, error)
	AcceptTerms(context.Context, *AcceptTermsRequest) (*AcceptTermsResponse, error)
	ShareIdentifier(context.Context, *IdentifierRequest) (*IdentifierResponse, error)
	RevokeIdentifier(context.Context, *IdentifierRequest) (*IdentifierResponse, error)
	CheckVerification(context.Context, *CheckVerificationRequest) (*IdentifierResponse, error)
	SubmitPhoneToken(context.Context, *SubmitPhoneTokenRequest) (*IdentifierResponse, error)
	Resume(context.Context, *ResumeRequest) (*ResumeResponse, error)
	Pause(context.Context, *PauseRequest) (*PauseResponse, error)
}

// UnimplementedDiscoveryServer returns codes.Unimplemented for every method.
type UnimplementedDiscoveryServer struct{}

func unimplemented(name string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", name)
}

func (UnimplementedDiscoveryServer) GetSettings(context.Context, *GetSettingsRequest) (*GetSettingsResponse, error) {
	return nil, unimplemented("GetSettings")
}
func (UnimplementedDiscoveryServer) LinkAccount(context.Context, *LinkAccountRequest) (*LinkAccountResponse, error) {
	return nil, unimplemented("LinkAccount")
}
func (UnimplementedDiscoveryServer) AddIdentifier(context.Context, *IdentifierRequest) (*IdentifierResponse, error) {
	return nil, unimplemented("AddIdentifier")
}
func (UnimplementedDiscoveryServer) RemoveIdentifier(context.Context, *IdentifierRequest) (*IdentifierResponse, error) {
	return nil, unimplemented("RemoveIdentifier")
}
func (UnimplementedDiscoveryServer) SetCandidate(context.Context, *SetCandidateRequest) (*SetCandidateResponse, error) {
	return nil, unimplemented("SetCandidate")
}
func (UnimplementedDiscoveryServer) SubmitIdentityServer(context.Context, *SubmitIdentityServerRequest) (*ChangeResponse, error) {
	return nil, unimplemented("SubmitIdentityServer")
}
func (UnimplementedDiscoveryServer) DisconnectIdentityServer(context.Context, *DisconnectIdentityServerRequest) (*ChangeResponse, error) {
	return nil, unimplemented("DisconnectIdentityServer")
}
func (UnimplementedDiscoveryServer) AcceptTerms(context.Context, *AcceptTermsRequest) (*AcceptTermsResponse, error) {
	return nil, unimplemented("AcceptTerms")
}
func (UnimplementedDiscoveryServer) ShareIdentifier(context.Context, *IdentifierRequest) (*IdentifierResponse, error) {
	return nil, unimplemented("ShareIdentifier")
}
func (UnimplementedDiscoveryServer) RevokeIdentifier(context.Context, *IdentifierRequest) (*IdentifierResponse, error) {
	return nil, unimplemented("RevokeIdentifier")
}
func (UnimplementedDiscoveryServer) CheckVerification(context.Context, *CheckVerificationRequest) (*IdentifierResponse, error) {
	return nil, unimplemented("CheckVerification")
}
func (UnimplementedDiscoveryServer) SubmitPhoneToken(context.Context, *SubmitPhoneTokenRequest) (*IdentifierResponse, error) {
	return nil, unimplemented("SubmitPhoneToken")
}
func (UnimplementedDiscoveryServer) Resume(context.Context, *ResumeRequest) (*ResumeResponse, error) {
	return nil, unimplemented("Resume")
}
func (UnimplementedDiscoveryServer) Pause(context.Context, *PauseRequest) (*PauseResponse, error) {
	return nil, unimplemented("Pause")
}

// RegisterDiscoveryServer registers srv on s.
func RegisterDiscoveryServer(s grpc.ServiceRegistrar, srv DiscoveryServer) {
	s.RegisterService(&Discovery_ServiceDesc, srv)
}

// unary adapts a typed method to a grpc.MethodDesc handler.
func unary[Req any, Resp any](fullMethod string, call func(DiscoveryServer, context.Context, *Req) (*Resp, error)) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(DiscoveryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(DiscoveryServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// Discovery_ServiceDesc is the grpc.ServiceDesc of the Discovery service.
var Discovery_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DiscoveryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetSettings", Handler: unary(Discovery_GetSettings_FullMethodName, DiscoveryServer.GetSettings)},
		{MethodName: "LinkAccount", Handler: unary(Discovery_LinkAccount_FullMethodName, DiscoveryServer.LinkAccount)},
		{MethodName: "AddIdentifier", Handler: unary(Discovery_AddIdentifier_FullMethodName, DiscoveryServer.AddIdentifier)},
		{MethodName: "RemoveIdentifier", Handler: unary(Discovery_RemoveIdentifier_FullMethodName, DiscoveryServer.RemoveIdentifier)},
		{MethodName: "SetCandidate", Handler: unary(Discovery_SetCandidate_FullMethodName, DiscoveryServer.SetCandidate)},
		{MethodName: "SubmitIdentityServer", Handler: unary(Discovery_SubmitIdentityServer_FullMethodName, DiscoveryServer.SubmitIdentityServer)},
		{MethodName: "DisconnectIdentityServer", Handler: unary(Discovery_DisconnectIdentityServer_FullMethodName, DiscoveryServer.DisconnectIdentityServer)},
		{MethodName: "AcceptTerms", Handler: unary(Discovery_AcceptTerms_FullMethodName, DiscoveryServer.AcceptTerms)},
		{MethodName: "ShareIdentifier", Handler: unary(Discovery_ShareIdentifier_FullMethodName, DiscoveryServer.ShareIdentifier)},
		{MethodName: "RevokeIdentifier", Handler: unary(Discovery_RevokeIdentifier_FullMethodName, DiscoveryServer.RevokeIdentifier)},
		{MethodName: "CheckVerification", Handler: unary(Discovery_CheckVerification_FullMethodName, DiscoveryServer.CheckVerification)},
		{MethodName: "SubmitPhoneToken", Handler: unary(Discovery_SubmitPhoneToken_FullMethodName, DiscoveryServer.SubmitPhoneToken)},
		{MethodName: "Resume", Handler: unary(Discovery_Resume_FullMethodName, DiscoveryServer.Resume)},
		{MethodName: "Pause", Handler: unary(Discovery_Pause_FullMethodName, DiscoveryServer.Pause)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "discokeeper/discovery/v1/discovery.proto",
}

// DiscoveryClient is the client API of the Discovery service.
type DiscoveryClient interface {
	GetSettings(ctx context.Context, in *GetSettingsRequest, opts ...grpc.CallOption) (*GetSettingsResponse, error)
	LinkAccount(ctx context.Context, in *LinkAccountRequest, opts ...grpc.CallOption) (*LinkAccountResponse, error)
	AddIdentifier(ctx context.Context, in *IdentifierRequest, opts ...grpc.CallOption) (*IdentifierResponse, error)
	RemoveIdentifier(ctx context.Context, in *IdentifierRequest, opts ...grpc.CallOption) (*IdentifierResponse, error)
	SetCandidate(ctx context.Context, in *SetCandidateRequest, opts ...grpc.CallOption) (*SetCandidateResponse, error)
	SubmitIdentityServer(ctx context.Context, in *SubmitIdentityServerRequest, opts ...grpc.CallOption) (*ChangeResponse, error)
	DisconnectIdentityServer(ctx context.Context, in *DisconnectIdentityServerRequest, opts ...grpc.CallOption) (*ChangeResponse, error)
	AcceptTerms(ctx context.Context, in *AcceptTermsRequest, opts ...grpc.CallOption) (*AcceptTermsResponse, error)
	ShareIdentifier(ctx context.Context, in *IdentifierRequest, opts ...grpc.CallOption) (*IdentifierResponse, error)
	RevokeIdentifier(ctx context.Context, in *IdentifierRequest, opts ...grpc.CallOption) (*IdentifierResponse, error)
	CheckVerification(ctx context.Context, in *CheckVerificationRequest, opts ...grpc.CallOption) (*IdentifierResponse, error)
	SubmitPhoneToken(ctx context.Context, in *SubmitPhoneTokenRequest, opts ...grpc.CallOption) (*IdentifierResponse, error)
	Resume(ctx context.Context, in *ResumeRequest, opts ...grpc.CallOption) (*ResumeResponse, error)
	Pause(ctx context.Context, in *PauseRequest, opts ...grpc.CallOption) (*PauseResponse, error)
}

type discoveryClient struct {
	cc grpc.ClientConnInterface
}

// NewDiscoveryClient returns a client that sends every call with the JSON codec.
func NewDiscoveryClient(cc grpc.ClientConnInterface) DiscoveryClient {
	return &discoveryClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{CallOption()}, opts...)
	if err := cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *discoveryClient) GetSettings(ctx context.Context, in *GetSettingsRequest, opts ...grpc.CallOption) (*GetSettingsResponse, error) {
	return invoke[GetSettingsResponse](ctx, c.cc, Discovery_GetSettings_FullMethodName, in, opts)
}

func (c *discoveryClient) LinkAccount(ctx context.Context, in *LinkAccountRequest, opts ...grpc.CallOption) (*LinkAccountResponse, error) {
	return invoke[LinkAccountResponse](ctx, c.cc, Discovery_LinkAccount_FullMethodName, in, opts)
}

func (c *discoveryClient) AddIdentifier(ctx context.Context, in *IdentifierRequest, opts ...grpc.CallOption) (*IdentifierResponse, error) {
	return invoke[IdentifierResponse](ctx, c.cc, Discovery_AddIdentifier_FullMethodName, in, opts)
}

func (c *discoveryClient) RemoveIdentifier(ctx context.Context, in *IdentifierRequest, opts ...grpc.CallOption) (*IdentifierResponse, error) {
	return invoke[IdentifierResponse](ctx, c.cc, Discovery_RemoveIdentifier_FullMethodName, in, opts)
}

func (c *discoveryClient) SetCandidate(ctx context.Context, in *SetCandidateRequest, opts ...grpc.CallOption) (*SetCandidateResponse, error) {
	return invoke[SetCandidateResponse](ctx, c.cc, Discovery_SetCandidate_FullMethodName, in, opts)
}

func (c *discoveryClient) SubmitIdentityServer(ctx context.Context, in *SubmitIdentityServerRequest, opts ...grpc.CallOption) (*ChangeResponse, error) {
	return invoke[ChangeResponse](ctx, c.cc, Discovery_SubmitIdentityServer_FullMethodName, in, opts)
}

func (c *discoveryClient) DisconnectIdentityServer(ctx context.Context, in *DisconnectIdentityServerRequest, opts ...grpc.CallOption) (*ChangeResponse, error) {
	return invoke[ChangeResponse](ctx, c.cc, Discovery_DisconnectIdentityServer_FullMethodName, in, opts)
}

func (c *discoveryClient) AcceptTerms(ctx context.Context, in *AcceptTermsRequest, opts ...grpc.CallOption) (*AcceptTermsResponse, error) {
	return invoke[AcceptTermsResponse](ctx, c.cc, Discovery_AcceptTerms_FullMethodName, in, opts)
}

func (c *discoveryClient) ShareIdentifier(ctx context.Context, in *IdentifierRequest, opts ...grpc.CallOption) (*IdentifierResponse, error) {
	return invoke[IdentifierResponse](ctx, c.cc, Discovery_ShareIdentifier_FullMethodName, in, opts)
}

func (c *discoveryClient) RevokeIdentifier(ctx context.Context, in *IdentifierRequest, opts ...grpc.CallOption) (*IdentifierResponse, error) {
	return invoke[IdentifierResponse](ctx, c.cc, Discovery_RevokeIdentifier_FullMethodName, in, opts)
}

func (c *discoveryClient) CheckVerification(ctx context.Context, in *CheckVerificationRequest, opts ...grpc.CallOption) (*IdentifierResponse, error) {
	return invoke[IdentifierResponse](ctx, c.cc, Discovery_CheckVerification_FullMethodName, in, opts)
}

func (c *discoveryClient) SubmitPhoneToken(ctx context.Context, in *SubmitPhoneTokenRequest, opts ...grpc.CallOption) (*IdentifierResponse, error) {
	return invoke[IdentifierResponse](ctx, c.cc, Discovery_SubmitPhoneToken_FullMethodName, in, opts)
}

func (c *discoveryClient) Resume(ctx context.Context, in *ResumeRequest, opts ...grpc.CallOption) (*ResumeResponse, error) {
	return invoke[ResumeResponse](ctx, c.cc, Discovery_Resume_FullMethodName, in, opts)
}

func (c *discoveryClient) Pause(ctx context.Context, in *PauseRequest, opts ...grpc.CallOption) (*PauseResponse, error) {
	return invoke[PauseResponse](ctx, c.cc, Discovery_Pause_FullMethodName, in, opts)
}
