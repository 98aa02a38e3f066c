package rpcprovider

import (
	"context"
	"fmt"
	"io"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"golang.org/x/text/encoding"
	"golang.org/x/text/language"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	jct "github.com/banksean/jct"
	"github.com/banksean/jct/diagnostics"
	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/filemanager"
	"github.com/banksean/jct/location"
)

// Client implements jct.CompilerProvider by forwarding RunCompilation
// calls to a CompilerService listening at a remote address.
type Client struct {
	conn *grpc.ClientConn
}

// Dial connects to target, wiring otelgrpc.NewClientHandler so the caller's
// trace context (whose span jct/diagnostics adds diagnostic events to)
// continues across the RPC boundary.
func Dial(ctx context.Context, target string, extra ...grpc.DialOption) (*Client, error) {
	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithStatsHandler(otelgrpc.NewClientHandler()),
	}, extra...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		return nil, fmt.Errorf("jct/rpcprovider: dialing %s: %w", target, err)
	}
	return &Client{conn: conn}, nil
}

// Close releases the underlying connection.
func (c *Client) Close() error { return c.conn.Close() }

var _ jct.CompilerProvider = (*Client)(nil)

// CreateFileManager is a local no-op: the wire protocol only round-trips a
// whole compilation in one RunCompilation call, so there is nothing to
// negotiate up front beyond echoing back what the caller asked for.
func (c *Client) CreateFileManager(listener *diagnostics.Listener, locale *language.Tag, charset encoding.Encoding) (jct.StandardFileManagerSeed, error) {
	return jct.StandardFileManagerSeed{Locale: locale, Charset: charset}, nil
}

// SupportedReleases calls the ListSourceReleases RPC.
func (c *Client) SupportedReleases() []string {
	req, err := structpb.NewStruct(nil)
	if err != nil {
		return nil
	}
	resp := new(structpb.Struct)
	if err := c.conn.Invoke(context.Background(), methodListSourceReleases, req, resp); err != nil {
		return nil
	}
	return structStringList(resp, "releases")
}

// GetTask builds a CompileTask that marshals units into a RunCompilation
// request, invokes it, and replays the response into listener, out, and
// fm's output locations.
func (c *Client) GetTask(out io.Writer, fm *filemanager.FileManager, listener *diagnostics.Listener, options []string, classNames []string, units []*fileobject.FileObject) (jct.CompileTask, error) {
	return &remoteTask{
		conn:       c.conn,
		out:        out,
		fm:         fm,
		listener:   listener,
		options:    options,
		classNames: classNames,
		units:      units,
	}, nil
}

type remoteTask struct {
	conn       *grpc.ClientConn
	out        io.Writer
	fm         *filemanager.FileManager
	listener   *diagnostics.Listener
	options    []string
	classNames []string
	units      []*fileobject.FileObject
}

func (t *remoteTask) Run(ctx context.Context) bool {
	reqStruct, err := buildRunCompilationRequest(t.options, t.classNames, t.units)
	if err != nil {
		fmt.Fprintf(t.out, "jct/rpcprovider: building request: %v\n", err)
		return false
	}

	respStruct := new(structpb.Struct)
	if err := t.conn.Invoke(ctx, methodRunCompilation, reqStruct, respStruct); err != nil {
		fmt.Fprintf(t.out, "jct/rpcprovider: RunCompilation failed: %v\n", err)
		return false
	}

	resp := decodeRunCompilationResponse(respStruct)
	io.WriteString(t.out, resp.Transcript)

	for _, d := range resp.Diagnostics {
		t.listener.Report(ctx, diagnostics.Diagnostic{
			Kind:      diagnostics.KindFromString(d.Kind),
			Code:      d.Code,
			SourceURI: d.SourceURI,
			Line:      d.Line,
			Column:    d.Column,
			Message:   func(string) string { return d.Message },
		})
	}

	for _, o := range resp.Outputs {
		fo, err := t.fm.GetFileForOutput(ctx, location.ClassOutput, "", o.Path, nil)
		if err != nil {
			fmt.Fprintf(t.out, "jct/rpcprovider: writing output %s: %v\n", o.Path, err)
			return false
		}
		if err := fo.WriteAllBytes(o.Contents); err != nil {
			fmt.Fprintf(t.out, "jct/rpcprovider: writing output %s: %v\n", o.Path, err)
			return false
		}
	}

	return resp.Success
}

func buildRunCompilationRequest(options, classNames []string, units []*fileobject.FileObject) (*structpb.Struct, error) {
	optValues := make([]interface{}, len(options))
	for i, o := range options {
		optValues[i] = o
	}
	classValues := make([]interface{}, len(classNames))
	for i, c := range classNames {
		classValues[i] = c
	}

	unitValues := make([]interface{}, 0, len(units))
	for _, u := range units {
		contents, err := u.ReadAllBytes()
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", u.Name(), err)
		}
		unitValues = append(unitValues, map[string]interface{}{
			"path":     u.Name(),
			"contents": string(contents),
		})
	}

	return structpb.NewStruct(map[string]interface{}{
		"options":     optValues,
		"class_names": classValues,
		"units":       unitValues,
	})
}

func decodeRunCompilationResponse(s *structpb.Struct) RunCompilationResponse {
	var out RunCompilationResponse
	out.Success = structBool(s, "success")
	out.Transcript = structString(s, "transcript")
	for _, d := range structStructList(s, "diagnostics") {
		out.Diagnostics = append(out.Diagnostics, RemoteDiagnostic{
			Kind:      structString(d, "kind"),
			Code:      structString(d, "code"),
			Message:   structString(d, "message"),
			SourceURI: structString(d, "source_uri"),
			Line:      int64(structNumber(d, "line")),
			Column:    int64(structNumber(d, "column")),
		})
	}
	for _, o := range structStructList(s, "outputs") {
		data, err := decodeBase64(structString(o, "contents_base64"))
		if err != nil {
			continue
		}
		out.Outputs = append(out.Outputs, CompiledOutput{
			Path:     structString(o, "path"),
			Contents: data,
		})
	}
	return out
}

func structNumber(s *structpb.Struct, key string) float64 {
	v, ok := s.GetFields()[key]
	if !ok {
		return 0
	}
	return v.GetNumberValue()
}
