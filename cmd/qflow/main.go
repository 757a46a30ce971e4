package main

import (
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/voxelbrain/goptions"

	"github.com/qflowdev/qflow/internal/ansi"
	"github.com/qflowdev/qflow/internal/config"
	"github.com/qflowdev/qflow/internal/log"
	"github.com/qflowdev/qflow/pkg/qflow"
	"github.com/qflowdev/qflow/pkg/qflow/diag"
	"github.com/qflowdev/qflow/pkg/qflow/querycalc"
)

var printfStdOut = func(format string, args ...interface{}) {
	fmt.Fprintf(os.Stdout, format, args...)
}

var getopts = func(o interface{}) {
	if err := goptions.Parse(o); err != nil {
		usage()
	}
}

var exit = func(code int) {
	os.Exit(code)
}

var usage = func() {
	goptions.PrintHelp()
	exit(1)
}

func envFlag(varname string) bool {
	val := os.Getenv(varname)
	return val != "" && strings.ToLower(val) != "false" && val != "0"
}

type compileOpts struct {
	AreaTemplate string             `goptions:"--area-template, description='Path to an area template YAML file (name + qualifiers)'"`
	Help         bool               `goptions:"--help, -h"`
	Files        goptions.Remainder `goptions:"description='Expression-description YAML files to parse'"`
}

type queryOpts struct {
	Name       string             `goptions:"--name, description='Name to register the compiled query under', obligatory"`
	Vault      string             `goptions:"--vault-addr, description='Vault address for remote secret resolution'"`
	AWSRegion  string             `goptions:"--aws-region, description='AWS region for Secrets Manager/SSM resolution'"`
	ConfigFile string             `goptions:"--config, description='Path to a qflow config file (YAML or TOML) providing engine/scheduler defaults'"`
	Help       bool               `goptions:"--help, -h"`
	Files      goptions.Remainder `goptions:"description='A query expression YAML file'"`
}

type watchOpts struct {
	Name       string             `goptions:"--name, description='Registered query name to re-evaluate each cycle', obligatory"`
	Cycles     int                `goptions:"--cycles, description='Number of refresh cycles to simulate'"`
	ConfigFile string             `goptions:"--config, description='Path to a qflow config file (YAML or TOML) providing engine/scheduler defaults'"`
	Help       bool               `goptions:"--help, -h"`
	Files      goptions.Remainder `goptions:"description='A query expression YAML file'"`
}

type explainOpts struct {
	Label string             `goptions:"--label, description='Label for the diff report'"`
	Help  bool               `goptions:"--help, -h"`
	Files goptions.Remainder `goptions:"description='Two snapshot YAML files: before and after'"`
}

func main() {
	var options struct {
		Debug   bool   `goptions:"-D, --debug, description='Enable debugging'"`
		Trace   bool   `goptions:"-T, --trace, description='Enable trace mode debugging (very verbose)'"`
		Color   string `goptions:"--color, description='Control color output (on/off/auto, default: auto)'"`
		Action  goptions.Verbs
		Compile compileOpts `goptions:"compile"`
		Query   queryOpts   `goptions:"query"`
		Watch   watchOpts   `goptions:"watch"`
		Explain explainOpts `goptions:"explain"`
	}
	getopts(&options)

	if envFlag("DEBUG") || options.Debug {
		log.SetLevel(log.LevelDebug)
	}
	if envFlag("TRACE") || options.Trace {
		log.SetLevel(log.LevelTrace)
	}

	shouldEnableColor := false
	switch options.Color {
	case "on":
		shouldEnableColor = true
	case "off":
		shouldEnableColor = false
	case "auto", "":
		shouldEnableColor = isatty.IsTerminal(os.Stderr.Fd())
	default:
		log.PrintfStdErr("invalid --color option: %s. Must be 'on', 'off', or 'auto'.\n", options.Color)
		exit(1)
		return
	}
	ansi.Color(shouldEnableColor)

	switch options.Action {
	case "compile":
		if options.Compile.Help {
			usage()
			return
		}
		if err := cmdCompile(options.Compile); err != nil {
			log.PrintfStdErr("%s\n", err.Error())
			exit(2)
			return
		}
	case "query":
		if options.Query.Help {
			usage()
			return
		}
		if err := cmdQuery(options.Query); err != nil {
			log.PrintfStdErr("%s\n", err.Error())
			exit(2)
			return
		}
	case "watch":
		if options.Watch.Help {
			usage()
			return
		}
		if err := cmdWatch(options.Watch); err != nil {
			log.PrintfStdErr("%s\n", err.Error())
			exit(2)
			return
		}
	case "explain":
		if options.Explain.Help {
			usage()
			return
		}
		if err := cmdExplain(options.Explain); err != nil {
			log.PrintfStdErr("%s\n", err.Error())
			exit(2)
			return
		}
	default:
		usage()
		return
	}
	exit(0)
}

// cmdCompile parses each given expression-description file and, when an
// area template header was supplied, its name/qualifiers, reporting a
// one-line summary per file (spec.md §5.9's `compile` subcommand).
func cmdCompile(opts compileOpts) error {
	if len(opts.Files) == 0 {
		return ansi.Errorf("@R{compile requires at least one expression-description YAML file}")
	}

	if opts.AreaTemplate != "" {
		data, err := ioutil.ReadFile(opts.AreaTemplate)
		if err != nil {
			return err
		}
		header, err := qflow.ParseAreaTemplateHeader(data)
		if err != nil {
			return err
		}
		printfStdOut("area template @G{%s}: %d qualifier(s)\n", header.Name, len(header.Qualifiers))
	}

	for _, path := range opts.Files {
		data, err := ioutil.ReadFile(path)
		if err != nil {
			return err
		}
		expr, err := qflow.ParseExpressionYAML(data)
		if err != nil {
			return ansi.Errorf("@R{%s}: %s", path, err)
		}
		printfStdOut("%s: parsed expression kind %v\n", path, expr.Kind)
	}
	return nil
}

// cmdQuery compiles a single query from a YAML expression file and
// prints its currently-matching data-element ids; data elements are
// expected to already live in the engine's in-memory indexer in a real
// embedding, so this mode is primarily for dry-running a query against
// an otherwise-empty store to surface compile errors.
func cmdQuery(opts queryOpts) error {
	if len(opts.Files) != 1 {
		return ansi.Errorf("@R{query requires exactly one expression YAML file}")
	}
	data, err := ioutil.ReadFile(opts.Files[0])
	if err != nil {
		return err
	}

	engineConfig, err := loadEngineConfig(opts.ConfigFile)
	if err != nil {
		return err
	}
	if opts.Vault != "" {
		engineConfig.VaultAddr = opts.Vault
	}
	if opts.AWSRegion != "" {
		engineConfig.AWSRegion = opts.AWSRegion
	}
	engine := qflow.NewEngine(engineConfig)

	root, err := engine.CompileQuery(opts.Name, data)
	if err != nil {
		return err
	}

	rendered, err := querycalc.RenderMatchDelta(root.LowerSelectionMatches(nil), nil)
	if err != nil {
		return err
	}
	printfStdOut("%s\n", rendered)
	return nil
}

// cmdWatch compiles a query then refreshes it for the given number of
// simulated cycles, printing a dyff-rendered diff of the dominated match
// set between consecutive cycles (spec.md §5.9's `watch` subcommand;
// SPEC_FULL.md §5.6).
func cmdWatch(opts watchOpts) error {
	if len(opts.Files) != 1 {
		return ansi.Errorf("@R{watch requires exactly one expression YAML file}")
	}
	data, err := ioutil.ReadFile(opts.Files[0])
	if err != nil {
		return err
	}

	cycles := opts.Cycles
	if cycles <= 0 {
		cycles = 1
	}

	engineConfig, err := loadEngineConfig(opts.ConfigFile)
	if err != nil {
		return err
	}
	engine := qflow.NewEngine(engineConfig)
	root, err := engine.CompileQuery(opts.Name, data)
	if err != nil {
		return err
	}

	before := diag.Snapshot{}
	for cycle := 1; cycle <= cycles; cycle++ {
		if err := engine.RefreshQuery(opts.Name, cycle); err != nil {
			return err
		}
		after := diag.Snapshot{}
		for _, id := range root.LowerSelectionMatches(nil) {
			after[id] = true
		}
		report, changed, err := diag.Diff(opts.Name, before, after)
		if err != nil {
			return err
		}
		if changed {
			printfStdOut("-- cycle %d --\n%s\n", cycle, report)
		} else {
			printfStdOut("-- cycle %d -- no change\n", cycle)
		}
		before = after
	}
	return nil
}

// cmdExplain renders a dyff report between two snapshot YAML files, each
// holding a map of data-element id to its current value, mirroring the
// teacher's `diff` subcommand but over query snapshots instead of whole
// documents.
func cmdExplain(opts explainOpts) error {
	if len(opts.Files) != 2 {
		return ansi.Errorf("@R{explain requires exactly two snapshot files}")
	}
	before, err := loadSnapshot(opts.Files[0])
	if err != nil {
		return err
	}
	after, err := loadSnapshot(opts.Files[1])
	if err != nil {
		return err
	}
	label := opts.Label
	if label == "" {
		label = "query"
	}
	report, _, err := diag.Diff(label, before, after)
	if err != nil {
		return err
	}
	printfStdOut("%s\n", report)
	return nil
}

// loadEngineConfig loads engine settings for the query/watch subcommands.
// With no --config flag it returns qflow's own defaults unchanged; with
// one, it loads internal/config's layered YAML/TOML config (env-var
// overrides included) and converts it via ToEngineConfig, so a qflow
// config file actually drives the engine instead of sitting unread.
func loadEngineConfig(path string) (qflow.EngineConfig, error) {
	if path == "" {
		return qflow.DefaultEngineConfig(), nil
	}
	mgr := config.NewManager()
	if err := mgr.Load(path); err != nil {
		return qflow.EngineConfig{}, fmt.Errorf("loading config %s: %w", path, err)
	}
	return mgr.Get().ToEngineConfig(), nil
}

func loadSnapshot(path string) (diag.Snapshot, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, err
	}
	expr, err := qflow.ParseExpressionYAML(data)
	if err != nil {
		return nil, err
	}
	snap := diag.Snapshot{}
	if expr.Kind != qflow.ExprAttributeValue {
		return snap, nil
	}
	for k, v := range expr.Attrs {
		snap[hashID(k)] = exprValue(v)
	}
	return snap, nil
}

// hashID turns a snapshot file's string key into a stable int64 so
// loadSnapshot can reuse diag.Snapshot's element-id-keyed shape without
// requiring the fixture author to write raw integers.
func hashID(key string) int64 {
	var h int64 = 1469598103934665603 // arbitrary odd seed, FNV-1a shaped
	for _, b := range []byte(key) {
		h ^= int64(b)
		h *= 1099511628211
	}
	if h < 0 {
		h = -h
	}
	return h
}

func exprValue(e *qflow.Expression) interface{} {
	switch e.Kind {
	case qflow.ExprString:
		return e.Str
	case qflow.ExprNumber:
		return e.Num
	case qflow.ExprBoolean:
		return e.Bool
	default:
		return nil
	}
}
