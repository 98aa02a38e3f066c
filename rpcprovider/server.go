package rpcprovider

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Backend is the local compiler a Server exposes over gRPC. It is
// intentionally narrower than jct.CompilerProvider: the RPC boundary only
// ever carries a single batch compilation, never a live file manager or
// listener, so the wire contract is request/response rather than the
// in-process streaming-diagnostics shape.
type Backend interface {
	SupportedReleases() []string
	Compile(ctx context.Context, req RunCompilationRequest) (RunCompilationResponse, error)
}

// Server adapts a Backend to the hand-rolled CompilerService gRPC
// contract.
type Server struct {
	backend Backend
}

// NewServer wraps backend for registration with a *grpc.Server.
func NewServer(backend Backend) *Server {
	return &Server{backend: backend}
}

// Register attaches the CompilerService to s. Callers construct s with
// grpc.StatsHandler(otelgrpc.NewServerHandler()) so the client's trace
// context continues across the call.
func Register(s *grpc.Server, server *Server) {
	s.RegisterService(&serviceDesc, server)
}

var _ compilerServiceServer = (*Server)(nil)

func (s *Server) listSourceReleases(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	releases := s.backend.SupportedReleases()
	values := make([]interface{}, len(releases))
	for i, r := range releases {
		values[i] = r
	}
	return structpb.NewStruct(map[string]interface{}{"releases": values})
}

func (s *Server) runCompilation(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	decoded := decodeRunCompilationRequest(req)

	resp, err := s.backend.Compile(ctx, decoded)
	if err != nil {
		return nil, fmt.Errorf("jct/rpcprovider: remote compilation failed: %w", err)
	}

	return encodeRunCompilationResponse(resp), nil
}

func decodeRunCompilationRequest(req *structpb.Struct) RunCompilationRequest {
	var out RunCompilationRequest
	out.Options = structStringList(req, "options")
	out.ClassNames = structStringList(req, "class_names")
	for _, u := range structStructList(req, "units") {
		out.Units = append(out.Units, CompilationUnit{
			Path:     structString(u, "path"),
			Contents: structString(u, "contents"),
		})
	}
	return out
}

func encodeRunCompilationResponse(resp RunCompilationResponse) *structpb.Struct {
	diagnostics := make([]interface{}, len(resp.Diagnostics))
	for i, d := range resp.Diagnostics {
		diagnostics[i] = map[string]interface{}{
			"kind":       d.Kind,
			"code":       d.Code,
			"message":    d.Message,
			"source_uri": d.SourceURI,
			"line":       float64(d.Line),
			"column":     float64(d.Column),
		}
	}

	outputs := make([]interface{}, len(resp.Outputs))
	for i, o := range resp.Outputs {
		outputs[i] = map[string]interface{}{
			"path":             o.Path,
			"contents_base64": base64.StdEncoding.EncodeToString(o.Contents),
		}
	}

	out, err := structpb.NewStruct(map[string]interface{}{
		"success":     resp.Success,
		"transcript":  resp.Transcript,
		"diagnostics": diagnostics,
		"outputs":     outputs,
	})
	if err != nil {
		// Every value above is a string, bool, float64, or a []interface{}
		// or map[string]interface{} of such, all of which
		// structpb.NewStruct accepts unconditionally.
		panic(fmt.Sprintf("jct/rpcprovider: encoding response: %v", err))
	}
	return out
}
