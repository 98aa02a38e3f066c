// Command jctdemo runs one workspace-and-compile cycle against the
// in-process fake provider, printing the success flag with the unit and
// diagnostic counts, the output transcript, and the class-output tree. It
// exists to exercise the harness end to end from
// the command line, not as a flag-building façade for any real compiler
// CLI.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	kongyaml "github.com/alecthomas/kong-yaml"
	kongcompletion "github.com/jotaen/kong-completion"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"gopkg.in/natefinch/lumberjack.v2"

	jct "github.com/banksean/jct"
	"github.com/banksean/jct/fileobject"
	"github.com/banksean/jct/history"
	"github.com/banksean/jct/inprocess"
	"github.com/banksean/jct/location"
	"github.com/banksean/jct/treeprint"
)

type CLI struct {
	LogFile      string          `default:"/tmp/jctdemo/log" placeholder:"<log-file-path>" help:"location of the rotated JSON log file"`
	LogLevel     string          `default:"info" placeholder:"<debug|info|warn|error>" help:"the logging level (debug, info, warn, error)"`
	OTLPEndpoint string          `help:"OTLP/gRPC collector address for an optional trace exporter; tracing stays no-op if unset"`
	Config       kong.ConfigFlag `help:"path to a YAML config file overriding these defaults"`
	HistoryFile  string          `placeholder:"<db-path>" help:"path to a SQLite database recording each run's compile history; disabled if unset"`

	SourceFile   string   `default:"Hello.java" help:"file name (no directory part) of the single fake source file the demo compiles"`
	BinaryName   string   `default:"demo.Hello" help:"binary name the fake provider reports as its compiled output"`
	FailCompile  bool     `help:"script the fake provider to report compilation failure"`
	Release      string   `default:"21" help:"source release string reported by the fake provider"`
	ExtraOptions []string `help:"extra options forwarded to the fake provider's GetTask call"`
}

func (c *CLI) initSlog() {
	level := parseLevel(c.LogLevel)
	writer := &lumberjack.Logger{
		Filename:   c.LogFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     7, // days
	}
	if dir := filepath.Dir(c.LogFile); dir != "." {
		os.MkdirAll(dir, 0o755)
	}
	logger := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func main() {
	var cli CLI
	parser := kong.Must(&cli,
		kong.Description("Run one workspace/compile cycle against the in-process fake compiler provider."),
		kong.Configuration(kongyaml.Loader, "~/.jctdemo.yaml"))
	kongcompletion.Register(parser)

	_, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)
	cli.initSlog()

	ctx := context.Background()
	shutdown := cli.initTracing(ctx)
	defer shutdown(ctx)

	if err := run(ctx, &cli); err != nil {
		fmt.Fprintf(os.Stderr, "jctdemo: %v\n", err)
		os.Exit(1)
	}
}

// initTracing wires otel/sdk's batching TracerProvider to an OTLP/gRPC
// collector when an endpoint is configured; without one, the global no-op
// tracer stays in effect and diagnostics reporting is still safe to call.
func (c *CLI) initTracing(ctx context.Context) func(context.Context) error {
	if c.OTLPEndpoint == "" {
		return func(context.Context) error { return nil }
	}
	exp, err := otlptracegrpc.New(ctx, otlptracegrpc.WithEndpoint(c.OTLPEndpoint), otlptracegrpc.WithInsecure())
	if err != nil {
		slog.Warn("jctdemo: failed to build OTLP exporter, tracing disabled", "error", err)
		return func(context.Context) error { return nil }
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithBatcher(exp))
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

func run(ctx context.Context, cli *CLI) error {
	ws := jct.NewWorkspace("jctdemo")
	defer ws.Close(ctx)

	src, err := ws.CreatePackage(location.SourcePath, jct.RootVariantInMemory)
	if err != nil {
		return fmt.Errorf("creating source package: %w", err)
	}
	file, err := src.CreateFile(cli.SourceFile)
	if err != nil {
		return fmt.Errorf("naming source file: %w", err)
	}
	if err := file.WithContentsString("class Hello {}\n"); err != nil {
		return fmt.Errorf("writing source file: %w", err)
	}

	provider := &inprocess.Provider{
		Releases: []string{cli.Release},
		Outcome:  !cli.FailCompile,
		Outputs: []inprocess.ClassResult{
			{BinaryName: cli.BinaryName, Contents: []byte("cafebabe")},
		},
	}

	opts := jct.CompileOptions{Options: cli.ExtraOptions}
	if cli.HistoryFile != "" {
		recorder, err := history.Open(ctx, cli.HistoryFile)
		if err != nil {
			return fmt.Errorf("opening history database: %w", err)
		}
		defer recorder.Close()
		opts.Recorder = recorder
	}

	record, err := jct.Compile(ctx, ws, provider, opts)
	if err != nil {
		return fmt.Errorf("compiling: %w", err)
	}

	slog.InfoContext(ctx, "jctdemo compile finished", "success", record.Success, "units", len(record.Units), "diagnostics", len(record.Diagnostics))
	fmt.Printf("success=%v units=%d diagnostics=%d\n", record.Success, len(record.Units), len(record.Diagnostics))
	if record.OutputTranscript != "" {
		fmt.Println(record.OutputTranscript)
	}

	if g, ok := ws.Group(location.ClassOutput); ok {
		tree, err := treeprint.Build(ctx, g, "", []fileobject.Kind{fileobject.KindClass})
		if err != nil {
			return fmt.Errorf("building output tree: %w", err)
		}
		treeprint.Fprint(os.Stdout, tree)
	}
	return nil
}
