// Package rpcprovider implements a CompilerProvider that forwards
// compilation requests to a compiler service running in a different
// process — typically a sandbox or container pinned to a specific JDK
// build, reached over gRPC. Per SPEC_FULL §4.13, the wire messages are
// built entirely from the well-known protobuf Struct type
// (google.golang.org/protobuf/types/known/structpb) rather
// than a .proto-generated client: the message shapes here are simple
// pass-through containers, and hand-authoring .pb.go output without protoc
// would not be trustworthy.
package rpcprovider

import (
	"context"
	"encoding/base64"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

func decodeBase64(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

const (
	serviceName               = "jct.rpcprovider.CompilerService"
	methodListSourceReleases  = "/" + serviceName + "/ListSourceReleases"
	methodRunCompilation      = "/" + serviceName + "/RunCompilation"
)

// CompilationUnit is one source file sent to the remote compiler, encoded
// as a structpb.Struct with "path" and "contents" string fields on the
// wire (contents is UTF-8 Java source text).
type CompilationUnit struct {
	Path     string
	Contents string
}

// CompiledOutput is one output file (typically a .class file) the remote
// compiler produced, with contents base64-decoded from the wire struct's
// "contents_base64" field.
type CompiledOutput struct {
	Path     string
	Contents []byte
}

// RemoteDiagnostic is a diagnostic reported by the remote compiler,
// flattened to the fields the local diagnostics.Listener needs to replay
// it as a diagnostics.Diagnostic.
type RemoteDiagnostic struct {
	Kind      string
	Code      string
	Message   string
	SourceURI string
	Line      int64
	Column    int64
}

// RunCompilationRequest is the RunCompilation RPC's request payload.
type RunCompilationRequest struct {
	Options    []string
	ClassNames []string
	Units      []CompilationUnit
}

// RunCompilationResponse is the RunCompilation RPC's response payload.
type RunCompilationResponse struct {
	Success     bool
	Transcript  string
	Diagnostics []RemoteDiagnostic
	Outputs     []CompiledOutput
}

func structString(s *structpb.Struct, key string) string {
	v, ok := s.GetFields()[key]
	if !ok {
		return ""
	}
	return v.GetStringValue()
}

func structBool(s *structpb.Struct, key string) bool {
	v, ok := s.GetFields()[key]
	if !ok {
		return false
	}
	return v.GetBoolValue()
}

func structStringList(s *structpb.Struct, key string) []string {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil
	}
	list := v.GetListValue().GetValues()
	out := make([]string, len(list))
	for i, item := range list {
		out[i] = item.GetStringValue()
	}
	return out
}

func structStructList(s *structpb.Struct, key string) []*structpb.Struct {
	v, ok := s.GetFields()[key]
	if !ok {
		return nil
	}
	list := v.GetListValue().GetValues()
	out := make([]*structpb.Struct, 0, len(list))
	for _, item := range list {
		if st := item.GetStructValue(); st != nil {
			out = append(out, st)
		}
	}
	return out
}

// serviceDesc is the hand-rolled grpc.ServiceDesc registering the two
// unary RPCs this package defines.
var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*compilerServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListSourceReleases", Handler: listSourceReleasesHandler},
		{MethodName: "RunCompilation", Handler: runCompilationHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "jct/rpcprovider/wire.go",
}

// compilerServiceServer is the handler-side contract the hand-rolled
// grpc.ServiceDesc dispatches onto.
type compilerServiceServer interface {
	listSourceReleases(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	runCompilation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

func listSourceReleasesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(compilerServiceServer).listSourceReleases(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListSourceReleases}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(compilerServiceServer).listSourceReleases(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func runCompilationHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(compilerServiceServer).runCompilation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodRunCompilation}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(compilerServiceServer).runCompilation(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
