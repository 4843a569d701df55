// c2p converts SoapUI projects into Postman collections.
//
// Usage:
//
//	c2p convert <project.xml>       Convert a project into a collection and environment
//	c2p batch [c2p.yaml]            Convert every project listed in a manifest
//	c2p script [file|-]             Convert one Groovy script
//	c2p path <jsonpath>             Show the accessor a JSONPath translates to
//	c2p watch <project.xml>         Re-convert a project whenever it is saved
//	c2p serve                       Serve the conversions over HTTP
//	c2p mcp                         Serve the conversions as MCP tools over stdio
//	c2p report <file>               Render a saved conversion report
//	c2p config show|get|set|path    Inspect or change ~/.c2p/config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/karthiktools/convert2postman/internal/api"
	"github.com/karthiktools/convert2postman/internal/config"
	"github.com/karthiktools/convert2postman/internal/convert"
	"github.com/karthiktools/convert2postman/internal/jsonpath"
	"github.com/karthiktools/convert2postman/internal/lockfile"
	"github.com/karthiktools/convert2postman/internal/logging"
	"github.com/karthiktools/convert2postman/internal/manifest"
	"github.com/karthiktools/convert2postman/internal/mcp"
	"github.com/karthiktools/convert2postman/internal/report"
	"github.com/karthiktools/convert2postman/internal/script"
	"github.com/karthiktools/convert2postman/internal/watch"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

// errReview is returned by --strict conversions that left items to review.
var errReview = errors.New("conversion left items that need review")

func main() {
	cmd, args, cfgPath := parseArgs(os.Args[1:])

	if cmd == "" || cmd == "help" || cmd == "--help" || cmd == "-h" {
		printUsage()
		if cmd == "" {
			os.Exit(1)
		}
		return
	}

	if err := loadDotenv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "c2p: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "version", "--version", "-v":
		fmt.Printf("c2p version %s\n", version)
		return
	case "convert":
		err = cmdConvert(ctx, cfgPath, args)
	case "batch":
		err = cmdBatch(ctx, cfgPath, args)
	case "script":
		err = cmdScript(cfgPath, args)
	case "path":
		err = cmdPath(args)
	case "watch":
		err = cmdWatch(ctx, cfgPath, args)
	case "serve":
		err = cmdServe(ctx, cfgPath, args)
	case "mcp":
		err = cmdMcp(ctx, cfgPath)
	case "report":
		err = cmdReport(args)
	case "config":
		err = cmdConfig(cfgPath, args)
	default:
		fmt.Fprintf(os.Stderr, "c2p: unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "c2p: %v\n", err)
		}
		os.Exit(1)
	}
}

// parseArgs extracts the subcommand, its arguments and the --config path.
func parseArgs(raw []string) (command string, args []string, cfgPath string) {
	cfgPath = os.Getenv("C2P_CONFIG")

	var filtered []string
	for i := 0; i < len(raw); i++ {
		if raw[i] == "--config" && i+1 < len(raw) {
			cfgPath = raw[i+1]
			i++
			continue
		}
		filtered = append(filtered, raw[i])
	}

	if len(filtered) == 0 {
		return "", nil, cfgPath
	}
	return filtered[0], filtered[1:], cfgPath
}

// parseFlags parses flags that may appear before, between or after the
// positional arguments, and returns the positionals.
func parseFlags(fs *flag.FlagSet, args []string) ([]string, error) {
	var pos []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return pos, nil
		}
		pos = append(pos, args[0])
		args = args[1:]
	}
}

// loadDotenv reads a .env file into the environment when one exists.
// Variables already set win.
func loadDotenv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

func printUsage() {
	fmt.Printf(`c2p - SoapUI to Postman converter %s

Usage:
  c2p [--config <path>] <command> [arguments]

Commands:
  convert <project.xml>      Convert a SoapUI project
      -o <file>              Collection file (default: <name>.postman_collection.json beside the project)
      --env <file>           Environment file
      --report <file>        Review report (JSON)
      --html <file>          Review report rendered as HTML
      --strict               Exit non-zero when items need review
  batch [c2p.yaml]           Convert every project in a manifest
      --force                Convert unchanged projects too (see c2p-lock.json)
  script [file|-]            Convert a Groovy script read from a file or stdin
      --role <role>          test, prerequest, library or assertion (default: test)
      --name <name>          Test or library name
  path <jsonpath>            Show the accessor a JSONPath translates to
      --sample <file>        Evaluate the path against a JSON document
  watch <project.xml>        Re-convert a project whenever it is saved (same flags as convert)
  serve                      Serve conversions over HTTP
      --addr <addr>          Listen address (default: :8085)
  mcp                        Start MCP server over stdio (for AI agents)
  report <file>              Print a saved report as Markdown
      --html                 Print HTML instead
  config show                Print the effective configuration
  config get <key>           Print one setting
  config set <key> <value>   Change a setting in the config file
  config path                Print the config file location
  version                    Print the c2p version

Options:
  --config <path>   Config file (default: ~/.c2p/config.yaml)

Environment:
  C2P_CONFIG        Override the config file path
  C2P_<KEY>         Override a config key, for example C2P_LOG_LEVEL=debug
  A .env file in the working directory is loaded first.
`, version)
}

// ---------------------------------------------------------------------------
// configuration
// ---------------------------------------------------------------------------

func configPath(cfgPath string) (string, error) {
	if cfgPath != "" {
		return cfgPath, nil
	}
	return config.Path()
}

// loadConfig reads the config file and applies environment overrides.
func loadConfig(cfgPath string) (*config.Config, error) {
	path, err := configPath(cfgPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setup loads the configuration and builds the logger and converter.
// Logs go to stderr so stdout stays free for results.
func setup(cfgPath string) (*config.Config, *slog.Logger, *convert.Converter, error) {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return nil, nil, nil, err
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, logger, convert.New(nil, converterOptions(cfg, logger)), nil
}

func converterOptions(cfg *config.Config, logger *slog.Logger) convert.Options {
	return convert.Options{
		Workers:         cfg.Workers,
		CacheSize:       cfg.CacheSize,
		LibrarySuites:   cfg.LibrarySuites,
		IncludeDisabled: cfg.IncludeDisabled,
		Logger:          logger,
	}
}

// ---------------------------------------------------------------------------
// c2p convert / c2p watch
// ---------------------------------------------------------------------------

type convertFlags struct {
	out    outputs
	strict bool
}

func newConvertFlags(name string) (*flag.FlagSet, *convertFlags) {
	cf := &convertFlags{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cf.out.Collection, "o", "", "collection file")
	fs.StringVar(&cf.out.Environment, "env", "", "environment file")
	fs.StringVar(&cf.out.Report, "report", "", "report file")
	fs.StringVar(&cf.out.HTML, "html", "", "HTML report file")
	fs.BoolVar(&cf.strict, "strict", false, "exit non-zero when items need review")
	return fs, cf
}

// convertOne converts the project at path and writes its files.
func convertOne(ctx context.Context, conv *convert.Converter, path string, o outputs) (*convert.Output, outputs, error) {
	out, err := conv.ConvertFile(ctx, path)
	if err != nil {
		return nil, o, err
	}
	o = o.fill(defaultOutputs(filepath.Dir(path), out.Collection.Info.Name))
	if err := o.write(out); err != nil {
		return nil, o, err
	}
	return out, o, nil
}

func cmdConvert(ctx context.Context, cfgPath string, args []string) error {
	fs, cf := newConvertFlags("convert")
	pos, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return fmt.Errorf("usage: c2p convert <project.xml> [-o file] [--env file] [--report file] [--html file] [--strict]")
	}

	_, _, conv, err := setup(cfgPath)
	if err != nil {
		return err
	}

	out, o, err := convertOne(ctx, conv, pos[0], cf.out)
	if err != nil {
		return err
	}
	fmt.Printf("Converted %s\n", pos[0])
	fmt.Print(summary(out, o))

	if cf.strict && !out.Report.Clean() {
		return errReview
	}
	return nil
}

func cmdWatch(ctx context.Context, cfgPath string, args []string) error {
	fs, cf := newConvertFlags("watch")
	pos, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if len(pos) == 0 {
		return fmt.Errorf("usage: c2p watch <project.xml>... [-o file] [--env file] [--report file] [--html file]")
	}
	if len(pos) > 1 && cf.out != (outputs{}) {
		return fmt.Errorf("output flags need a single project")
	}

	_, logger, conv, err := setup(cfgPath)
	if err != nil {
		return err
	}

	run := func(ctx context.Context, path string) error {
		out, o, err := convertOne(ctx, conv, path, cf.out)
		if err != nil {
			return err
		}
		fmt.Printf("Converted %s\n", path)
		fmt.Print(summary(out, o))
		return nil
	}

	for _, p := range pos {
		if err := run(ctx, p); err != nil {
			logger.Error("conversion failed", "path", p, "error", err)
		}
	}

	w, err := watch.New(pos, run, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	fmt.Println("Watching for changes. Press Ctrl+C to stop.")
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// ---------------------------------------------------------------------------
// c2p batch
// ---------------------------------------------------------------------------

func cmdBatch(ctx context.Context, cfgPath string, args []string) error {
	fs := flag.NewFlagSet("batch", flag.ContinueOnError)
	force := fs.Bool("force", false, "convert every project, even unchanged ones")
	pos, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	path := manifest.DefaultFilename
	if len(pos) > 0 {
		path = pos[0]
	}
	m, err := manifest.Load(path)
	if err != nil {
		return err
	}

	cfg, logger, _, err := setup(cfgPath)
	if err != nil {
		return err
	}
	opts := converterOptions(cfg, logger)
	if m.Settings.Workers > 0 {
		opts.Workers = m.Settings.Workers
	}
	conv := convert.New(nil, opts)

	lockDir := filepath.Dir(path)
	lock, err := lockfile.LoadOrNew(lockDir, version)
	if err != nil {
		return err
	}

	var failed, review, skipped int
	for _, name := range m.ProjectNames() {
		p := m.Projects[name]
		sum, err := lockfile.Checksum(p.Source)
		if err != nil {
			fmt.Printf("  %-24s FAILED - %v\n", name, err)
			failed++
			continue
		}
		if !*force && lock.UpToDate(name, sum, p.Output) {
			fmt.Printf("  %-24s %-14s %s\n", name, "unchanged", p.Output)
			skipped++
			continue
		}

		o := outputs{Collection: p.Output, Environment: p.Environment, Report: p.Report}
		out, _, err := convertOne(ctx, conv, p.Source, o)
		if err != nil {
			fmt.Printf("  %-24s FAILED - %v\n", name, err)
			failed++
			continue
		}
		status := "ok"
		if !out.Report.Clean() {
			status = fmt.Sprintf("%d to review", len(out.Report.Entries))
			review++
		}
		lock.Record(name, lockfile.LockedProject{
			Source:      p.Source,
			Checksum:    sum,
			Output:      p.Output,
			ReviewItems: len(out.Report.Entries),
		})
		fmt.Printf("  %-24s %-14s %s\n", name, status, p.Output)
	}

	if err := lockfile.Save(lockDir, lock); err != nil {
		return fmt.Errorf("saving %s: %w", lockfile.Filename, err)
	}

	fmt.Println()
	fmt.Printf("%d projects, %d unchanged, %d failed, %d need review\n", len(m.Projects), skipped, failed, review)
	if failed > 0 {
		return fmt.Errorf("%d of %d projects failed", failed, len(m.Projects))
	}
	return nil
}

// ---------------------------------------------------------------------------
// c2p script / c2p path
// ---------------------------------------------------------------------------

func cmdScript(cfgPath string, args []string) error {
	fs := flag.NewFlagSet("script", flag.ContinueOnError)
	roleName := fs.String("role", "test", "wrapper role")
	name := fs.String("name", "", "test or library name")
	pos, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	role, err := script.ParseRole(*roleName)
	if err != nil {
		return err
	}

	var src []byte
	switch {
	case len(pos) == 0 || pos[0] == "-":
		src, err = io.ReadAll(os.Stdin)
	default:
		src, err = os.ReadFile(pos[0])
		if *name == "" {
			*name = strings.TrimSuffix(filepath.Base(pos[0]), filepath.Ext(pos[0]))
		}
	}
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}

	_, _, conv, err := setup(cfgPath)
	if err != nil {
		return err
	}
	res := conv.Rewriter().Convert(script.Fragment{Name: *name, Text: string(src), Role: role})
	fmt.Println(res.Text())
	for _, w := range res.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
	return nil
}

func cmdPath(args []string) error {
	fs := flag.NewFlagSet("path", flag.ContinueOnError)
	sample := fs.String("sample", "", "JSON document to evaluate against")
	pos, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return fmt.Errorf("usage: c2p path <jsonpath> [--sample file]")
	}

	accessor, err := jsonpath.Translate(pos[0])
	if err != nil {
		return err
	}
	fmt.Printf("pm.response.json()%s\n", accessor)

	if *sample == "" {
		return nil
	}
	data, err := os.ReadFile(*sample)
	if err != nil {
		return fmt.Errorf("reading sample: %w", err)
	}
	v, found, err := jsonpath.EvaluateJSON(data, pos[0])
	if err != nil {
		return err
	}
	if !found {
		fmt.Println("(not found in sample)")
		return nil
	}
	fmt.Println(jsonpath.Describe(v))
	return nil
}

// ---------------------------------------------------------------------------
// c2p serve / c2p mcp
// ---------------------------------------------------------------------------

func cmdServe(ctx context.Context, cfgPath string, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", ":8085", "listen address")
	if _, err := parseFlags(fs, args); err != nil {
		return err
	}

	_, logger, conv, err := setup(cfgPath)
	if err != nil {
		return err
	}
	return api.New(conv, logger).ListenAndServe(ctx, *addr)
}

func cmdMcp(ctx context.Context, cfgPath string) error {
	_, logger, conv, err := setup(cfgPath)
	if err != nil {
		return err
	}
	return mcp.NewServer(conv, version, logger).Serve(ctx)
}

// ---------------------------------------------------------------------------
// c2p report
// ---------------------------------------------------------------------------

func cmdReport(args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	html := fs.Bool("html", false, "render HTML")
	pos, err := parseFlags(fs, args)
	if err != nil {
		return err
	}
	if len(pos) != 1 {
		return fmt.Errorf("usage: c2p report <report.json> [--html]")
	}

	r, err := report.Load(pos[0])
	if err != nil {
		return err
	}
	if *html {
		out, err := r.HTML()
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}
	fmt.Print(r.Markdown())
	return nil
}

// ---------------------------------------------------------------------------
// c2p config
// ---------------------------------------------------------------------------

func cmdConfig(cfgPath string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: c2p config <show|get|set|path>")
	}
	path, err := configPath(cfgPath)
	if err != nil {
		return err
	}

	switch args[0] {
	case "path":
		fmt.Println(path)
		return nil

	case "show":
		cfg, err := loadConfig(cfgPath)
		if err != nil {
			return err
		}
		return showConfig(os.Stdout, cfg)

	case "get":
		if len(args) != 2 {
			return fmt.Errorf("usage: c2p config get <key>")
		}
		cfg, err := loadConfig(cfgPath)
		if err != nil {
			return err
		}
		v, err := cfg.Get(args[1])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil

	case "set":
		if len(args) != 3 {
			return fmt.Errorf("usage: c2p config set <key> <value>")
		}
		// Environment overrides are not persisted.
		cfg, err := config.LoadFrom(path)
		if err != nil {
			return err
		}
		if err := cfg.Set(args[1], args[2]); err != nil {
			return err
		}
		if err := config.SaveTo(path, cfg); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("Set %s in %s\n", args[1], path)
		return nil

	default:
		return fmt.Errorf("unknown config subcommand %q (expected show, get, set, or path)", args[0])
	}
}

func showConfig(w io.Writer, cfg *config.Config) error {
	for _, key := range config.Keys {
		v, err := cfg.Get(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%-18s %s\n", key, v)
	}
	return nil
}
