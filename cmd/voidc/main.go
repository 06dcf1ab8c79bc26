// Package main implements the Void compiler entry point.
package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/kr/pretty"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/you-not-fish/voidc/internal/compile"
	"github.com/you-not-fish/voidc/internal/config"
	"github.com/you-not-fish/voidc/internal/logging"
	"github.com/you-not-fish/voidc/internal/project"
	"github.com/you-not-fish/voidc/internal/syntax"
	"github.com/you-not-fish/voidc/internal/token"
)

// Version information
const Version = "0.1.0-dev"

// Emit formats.
const (
	emitTokens   = "tokens"
	emitAST      = "ast"
	emitASTDebug = "ast-debug"
	emitSSA      = "ssa"
	emitLL       = "ll"
)

// options are the parsed command-line flags.
type options struct {
	emit     string
	run      bool
	output   string
	verbose  bool
	logFile  string
	metrics  bool
	noOpt    bool
	noASI    bool
	verify   bool
	diff     string
	buildID  string
	version  bool
	doctor   bool
	parallel int
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// run executes the command line args and returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("voidc", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var o options
	fs.StringVar(&o.emit, "emit", emitLL, "Output format: tokens, ast, ast-debug, ssa or ll")
	fs.BoolVar(&o.run, "run", false, "Interpret main and exit with its status")
	fs.StringVar(&o.output, "o", "", "Output file, or output directory for build")
	fs.BoolVar(&o.verbose, "v", false, "Log compiler phases")
	fs.StringVar(&o.logFile, "log-file", "", "Write JSON logs to this file, rotated by size")
	fs.BoolVar(&o.metrics, "metrics", false, "Print phase metrics after compiling")
	fs.BoolVar(&o.noOpt, "no-opt", false, "Skip mem2reg and dead value elimination")
	fs.BoolVar(&o.noASI, "no-asi", false, "Disable automatic semicolon insertion for -emit=tokens")
	fs.BoolVar(&o.verify, "ssa-verify", false, "Verify SSA before and after each pass")
	fs.StringVar(&o.diff, "diff", "", "Compare the ssa or ll output with this file")
	fs.StringVar(&o.buildID, "build-id", "", "Build identifier for the module header (default: random KSUID)")
	fs.BoolVar(&o.version, "version", false, "Print version")
	fs.BoolVar(&o.doctor, "doctor", false, "Check toolchain")
	fs.IntVar(&o.parallel, "j", 0, "Units compiled in parallel (default: GOMAXPROCS)")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Void Compiler %s\n\n", Version)
		fmt.Fprintf(stderr, "Usage:\n")
		fmt.Fprintf(stderr, "  voidc [options] <file.vs>\n")
		fmt.Fprintf(stderr, "  voidc build [options] <dir>\n")
		fmt.Fprintf(stderr, "  voidc init <dir>\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
	}

	cmd := ""
	if len(args) > 0 && (args[0] == "build" || args[0] == "init") {
		cmd, args = args[0], args[1:]
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if o.version {
		fmt.Fprintf(stdout, "voidc version %s\n", Version)
		fmt.Fprintf(stdout, "go version %s\n", runtime.Version())
		return 0
	}
	if o.doctor {
		return runDoctor(stdout)
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(stderr, "error: want exactly one input")
		fs.Usage()
		return 1
	}
	input := fs.Arg(0)

	if cmd == "init" {
		return runInit(input, stdout, stderr)
	}

	log, done := logging.New(logging.Config{Verbose: o.verbose, File: o.logFile, Stderr: stderr})
	defer done()
	d := &driver{opts: o, log: log, stdout: stdout, stderr: stderr}
	if o.metrics {
		d.reg = prometheus.NewRegistry()
		d.metrics = compile.NewMetrics(d.reg)
		defer d.printMetrics()
	}

	if cmd == "build" {
		return d.build(input)
	}
	switch o.emit {
	case emitTokens:
		return d.emitTokens(input)
	case emitAST, emitASTDebug:
		return d.emitAST(input)
	case emitSSA, emitLL:
		return d.compileFile(input)
	}
	fmt.Fprintf(stderr, "error: unknown -emit format %q\n", o.emit)
	return 1
}

// driver runs one command.
type driver struct {
	opts    options
	log     *zap.Logger
	stdout  io.Writer
	stderr  io.Writer
	reg     *prometheus.Registry
	metrics *compile.Metrics
}

func (d *driver) errorf(format string, args ...any) int {
	fmt.Fprintf(d.stderr, "error: "+format+"\n", args...)
	return 1
}

// report prints every error of a failed build, one per line.
func (d *driver) report(err error) int {
	for _, e := range multierr.Errors(err) {
		fmt.Fprintln(d.stderr, e)
		var cerr *compile.Error
		if errors.As(e, &cerr) {
			d.log.Debug("compile error", zap.Stringer("kind", cerr.Kind), zap.Stringer("pos", cerr.Pos))
		}
	}
	return 1
}

func (d *driver) buildOptions() project.Options {
	return project.Options{
		Logger:   d.log,
		Metrics:  d.metrics,
		NoOpt:    d.opts.noOpt,
		Verify:   d.opts.verify,
		Parallel: d.opts.parallel,
	}
}

// ----------------------------------------------------------------------------
// Single files

func (d *driver) emitTokens(filename string) int {
	src, err := os.ReadFile(filename)
	if err != nil {
		return d.errorf("%v", err)
	}
	toks, err := token.Tokenize(filename, string(src))
	if err != nil {
		return d.report(err)
	}
	if !d.opts.noASI {
		toks = token.Transform(toks)
	}

	w := d.stdout
	fmt.Fprintf(w, "%-20s %-12s %s\n", "POSITION", "TOKEN", "TEXT")
	fmt.Fprintf(w, "%-20s %-12s %s\n", strings.Repeat("-", 20), strings.Repeat("-", 12), strings.Repeat("-", 20))
	for _, t := range toks {
		fmt.Fprintf(w, "%-20s %-12s %s\n", t.Meta.Pos(filename), t.Kind, formatText(t.Text))
	}
	return 0
}

// formatText escapes token text for display.
func formatText(s string) string {
	r := strings.NewReplacer("\n", `\n`, "\t", `\t`, "\r", `\r`)
	return r.Replace(s)
}

func (d *driver) emitAST(filename string) int {
	src, err := os.ReadFile(filename)
	if err != nil {
		return d.errorf("%v", err)
	}
	decls, err := syntax.ParseSource(filename, string(src))
	if err != nil {
		return d.report(err)
	}
	for _, decl := range decls {
		if d.opts.emit == emitASTDebug {
			pretty.Fprintf(d.stdout, "%# v\n", decl)
			continue
		}
		syntax.Fprint(d.stdout, decl)
	}
	return 0
}

// compileFile compiles one source file as a program of one unit.
func (d *driver) compileFile(filename string) int {
	b, err := project.BuildFiles(context.Background(), []string{filename}, d.buildOptions())
	if err != nil {
		return d.report(err)
	}
	if d.opts.run {
		return d.runBuild(b)
	}

	var buf bytes.Buffer
	if err := project.Write(&buf, b.Units[0], d.opts.emit, d.opts.buildID); err != nil {
		return d.errorf("%v", err)
	}
	if d.opts.diff != "" {
		return d.compare(d.opts.diff, buf.String())
	}
	if d.opts.output == "" {
		_, err = d.stdout.Write(buf.Bytes())
	} else {
		err = os.WriteFile(d.opts.output, buf.Bytes(), 0o644)
	}
	if err != nil {
		return d.errorf("%v", err)
	}
	return 0
}

func (d *driver) runBuild(b *project.Build) int {
	code, err := b.Run(d.stdout, d.log)
	if err != nil {
		return d.errorf("%v", err)
	}
	return code
}

// compare prints a unified diff between the file want and got. It
// returns 1 when they differ.
func (d *driver) compare(want, got string) int {
	data, err := os.ReadFile(want)
	if err != nil {
		return d.errorf("%v", err)
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(data)),
		B:        difflib.SplitLines(got),
		FromFile: want,
		ToFile:   "output",
		Context:  3,
	})
	if err != nil {
		return d.errorf("%v", err)
	}
	if diff == "" {
		return 0
	}
	fmt.Fprint(d.stdout, diff)
	return 1
}

// ----------------------------------------------------------------------------
// Projects

func runInit(dir string, stdout, stderr io.Writer) int {
	name := filepath.Base(filepath.Clean(dir))
	p, err := project.Init(dir, name)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}
	fmt.Fprintf(stdout, "created project %s in %s\n", p.Manifest.Package.Name, p.Dir)
	return 0
}

func (d *driver) build(dir string) int {
	p, err := project.Open(dir)
	if err != nil {
		return d.errorf("%v", err)
	}
	b, err := p.Build(context.Background(), d.buildOptions())
	if err != nil {
		return d.report(err)
	}
	target := p.Manifest.Build.Target
	if d.opts.run {
		target = config.TargetRun
	}
	if target == config.TargetRun {
		return d.runBuild(b)
	}
	out := d.opts.output
	if out == "" {
		out = p.OutputDir()
	}
	paths, err := b.Emit(out, target, d.opts.buildID)
	if err != nil {
		return d.errorf("%v", err)
	}
	for _, path := range paths {
		d.log.Info("wrote", zap.String("path", path))
	}
	return 0
}

// ----------------------------------------------------------------------------
// Metrics

// printMetrics prints the gathered compile metrics to stderr.
func (d *driver) printMetrics() {
	families, err := d.reg.Gather()
	if err != nil {
		fmt.Fprintf(d.stderr, "error: metrics: %v\n", err)
		return
	}
	for _, f := range families {
		for _, m := range f.GetMetric() {
			fmt.Fprintf(d.stderr, "%s%s %s\n", f.GetName(), labels(m), value(f.GetType(), m))
		}
	}
}

func labels(m *dto.Metric) string {
	var parts []string
	for _, l := range m.GetLabel() {
		parts = append(parts, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	if len(parts) == 0 {
		return ""
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}

func value(t dto.MetricType, m *dto.Metric) string {
	switch t {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%g", m.GetCounter().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("count=%d sum=%gs", h.GetSampleCount(), h.GetSampleSum())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%g", m.GetGauge().GetValue())
	}
	return "?"
}

// ----------------------------------------------------------------------------
// Doctor

func runDoctor(w io.Writer) int {
	fmt.Fprintln(w, "Void Toolchain Doctor")
	fmt.Fprintln(w, "=====================")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Go:      %s ✓\n", runtime.Version())

	// clang is only needed to turn emitted .ll files into binaries
	for _, tool := range []string{"clang", "llvm-as"} {
		version, ok := checkTool(tool, "--version")
		if ok {
			fmt.Fprintf(w, "%-8s %s ✓\n", tool+":", version)
		} else {
			fmt.Fprintf(w, "%-8s (optional, not found)\n", tool+":")
		}
	}
	return 0
}

// checkTool runs a tool with the given arguments and returns the first line of output.
func checkTool(name string, args ...string) (string, bool) {
	out, err := exec.Command(name, args...).Output()
	if err != nil {
		return "", false
	}
	line, _, _ := strings.Cut(string(out), "\n")
	line = strings.TrimSpace(line)
	if len(line) > 60 {
		line = line[:57] + "..."
	}
	return line, true
}
