package rpcsrv

import (
	"context"

	"google.golang.org/grpc"
)

// ruleManagementServer documents the method set RegisterRuleManagementServer
// requires; HandlerType below exists only so grpc.Server.RegisterService
// can check an implementation satisfies it, same as a protoc-generated
// ServiceDesc would.
type ruleManagementServer interface {
	AddRules(context.Context, *AddRulesRequest) (*AddRulesResponse, error)
	ClearCache(context.Context, *ClearCacheRequest) (*ClearCacheResponse, error)
	CacheCount(context.Context, *CacheCountRequest) (*CacheCountResponse, error)
	FetchBinaryRule(context.Context, *FetchBinaryRuleRequest) (*FetchRuleResponse, error)
	FetchCertificateRule(context.Context, *FetchCertificateRuleRequest) (*FetchRuleResponse, error)
}

const serviceName = "santad.rules.v1.RuleManagement"

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ruleManagementServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddRules", Handler: addRulesHandler},
		{MethodName: "ClearCache", Handler: clearCacheHandler},
		{MethodName: "CacheCount", Handler: cacheCountHandler},
		{MethodName: "FetchBinaryRule", Handler: fetchBinaryRuleHandler},
		{MethodName: "FetchCertificateRule", Handler: fetchCertificateRuleHandler},
	},
	Metadata: "rpcsrv",
}

// RegisterRuleManagementServer wires srv into s under the rule-management
// service descriptor.
func RegisterRuleManagementServer(s *grpc.Server, srv *Service) {
	s.RegisterService(&serviceDesc, srv)
}

func addRulesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AddRulesRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Service).AddRules(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/AddRules"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*Service).AddRules(ctx, req.(*AddRulesRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func clearCacheHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ClearCacheRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Service).ClearCache(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/ClearCache"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*Service).ClearCache(ctx, req.(*ClearCacheRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func cacheCountHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(CacheCountRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Service).CacheCount(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/CacheCount"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*Service).CacheCount(ctx, req.(*CacheCountRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func fetchBinaryRuleHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(FetchBinaryRuleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Service).FetchBinaryRule(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/FetchBinaryRule"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*Service).FetchBinaryRule(ctx, req.(*FetchBinaryRuleRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func fetchCertificateRuleHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(FetchCertificateRuleRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(*Service).FetchCertificateRule(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + serviceName + "/FetchCertificateRule"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(*Service).FetchCertificateRule(ctx, req.(*FetchCertificateRuleRequest))
	}
	return interceptor(ctx, in, info, handler)
}
