// Command lwm2m-codec decodes, encodes and converts LWM2M payloads.
//
// Payloads are read inline (-i), from a file or from stdin (-). Nodes to
// encode are YAML node documents. Paths may name objects and resources
// ("/Device/0/Battery Level").
//
// Usage:
//
//	lwm2m-codec <command> [flags] [file]
//
// Commands:
//
//	decode   Decode a payload and print the nodes
//	encode   Encode YAML node documents
//	convert  Re-encode a payload in another content format
//	paths    Decode or encode a path list
//	trace    View, export, filter or summarize a codec trace file
//	shell    Interactive codec shell
//
// Examples:
//
//	# Decode a TLV resource
//	lwm2m-codec decode -f tlv -p /3/0/9 -i c10964
//
//	# Decode a SenML JSON composite payload as YAML
//	lwm2m-codec decode -f senml-json -o yaml payload.json
//
//	# Encode a node document as CBOR
//	lwm2m-codec encode -f cbor battery.yaml
//
//	# Convert TLV to SenML CBOR
//	lwm2m-codec convert -from tlv -to senml-cbor -p /3/0 -i 0800...
//
//	# Trace codec calls and show them
//	lwm2m-codec decode -trace codec.trace -f tlv -p /3/0/9 -i c10964
//	lwm2m-codec trace view codec.trace
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mash-protocol/lwm2m-go/cmd/lwm2m-codec/commands"
)

const usage = `lwm2m-codec - LWM2M Payload Codec

Usage:
  lwm2m-codec <command> [flags] [file]

Commands:
  decode   Decode a payload and print the nodes
  encode   Encode YAML node documents
  convert  Re-encode a payload in another content format
  paths    Decode or encode a path list
  trace    View, export, filter or summarize a codec trace file
  shell    Interactive codec shell

Use "lwm2m-codec <command> -help" for more information about a command.
`

const traceUsage = `lwm2m-codec trace - Codec trace file tools

Usage:
  lwm2m-codec trace <command> [flags] <file.trace>

Commands:
  view     View trace file in human-readable format
  export   Export trace file to JSON or CSV format
  filter   Filter trace file and write to new file
  stats    Show statistics about the trace file
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "decode":
		runDecode(args)
	case "encode":
		runEncode(args)
	case "convert":
		runConvert(args)
	case "paths":
		runPaths(args)
	case "trace":
		runTrace(args)
	case "shell":
		runShell(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// listFlag collects a repeatable string flag.
type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(s string) error {
	*l = append(*l, s)
	return nil
}

// common holds the flags that every codec command accepts.
type common struct {
	fs        *flag.FlagSet
	config    *string
	models    listFlag
	rootPath  *string
	logLevel  *string
	logFormat *string
	trace     *string
	strict    *bool
	version   *string
}

func commonFlags(fs *flag.FlagSet) *common {
	c := &common{fs: fs}
	c.config = fs.String("config", "", "YAML config file")
	fs.Var(&c.models, "model", "Object model file or directory (repeatable)")
	c.rootPath = fs.String("root-path", "", "URI prefix of paths in payloads")
	c.logLevel = fs.String("log-level", "", "Log level (debug, info, warn, error)")
	c.logFormat = fs.String("log-format", "", "Log format (text, json)")
	c.trace = fs.String("trace", "", "Append codec trace events to file")
	c.strict = fs.Bool("strict", false, "Reject tolerated format deviations")
	c.version = fs.String("lwm2m-version", "", "Limit content formats to an enabler version (1.0, 1.1, 1.2)")
	return c
}

// env loads the config file and applies the flags that were set.
func (c *common) env() *commands.Env {
	cfg, err := commands.LoadConfig(*c.config)
	if err != nil {
		fatal(err)
	}
	c.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "root-path":
			cfg.RootPath = *c.rootPath
		case "log-level":
			cfg.LogLevel = *c.logLevel
		case "log-format":
			cfg.LogFormat = *c.logFormat
		case "trace":
			cfg.TraceFile = *c.trace
		case "strict":
			cfg.Strict = *c.strict
		case "lwm2m-version":
			cfg.LwM2MVersion = *c.version
		}
	})
	cfg.Models = append(cfg.Models, c.models...)

	env, err := commands.NewEnv(cfg, os.Stderr)
	if err != nil {
		fatal(err)
	}
	return env
}

// payloadFlags holds the flags of commands reading a payload.
type payloadFlags struct {
	inline   *string
	encoding *string
}

func newPayloadFlags(fs *flag.FlagSet) payloadFlags {
	return payloadFlags{
		inline:   fs.String("i", "", "Inline payload (hex unless -in is given)"),
		encoding: fs.String("in", commands.EncodingAuto, "Payload encoding (auto, hex, base64, raw)"),
	}
}

func (p payloadFlags) read(fs *flag.FlagSet) []byte {
	file := fs.Arg(0)
	if *p.inline == "" && file == "" {
		file = "-"
	}
	data, err := commands.ReadPayload(*p.inline, file, *p.encoding, os.Stdin)
	if err != nil {
		fatal(err)
	}
	return data
}

func newFlagSet(name, text string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprint(os.Stderr, text)
		fmt.Fprintln(os.Stderr, "\nFlags:")
		fs.PrintDefaults()
	}
	return fs
}

func runDecode(args []string) {
	fs := newFlagSet("decode", `lwm2m-codec decode - Decode a payload and print the nodes

Usage:
  lwm2m-codec decode [flags] [file|-]
`)
	c := commonFlags(fs)
	in := newPayloadFlags(fs)
	format := fs.String("f", "", "Content format (name or code)")
	paths := fs.String("p", "", "Target paths, comma separated (default: all paths of the payload)")
	timestamped := fs.Bool("timestamped", false, "Decode timestamped values")
	output := fs.String("o", commands.OutputTree, "Output (tree, yaml)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	data := in.read(fs)
	env := c.env()
	defer env.Close()

	opts := commands.DecodeOptions{
		Format:      *format,
		Timestamped: *timestamped,
		Output:      *output,
	}
	if *paths != "" {
		opts.Paths = []string{*paths}
	}
	if err := commands.RunDecode(env, data, opts, os.Stdout); err != nil {
		env.Close()
		fatal(err)
	}
}

func runEncode(args []string) {
	fs := newFlagSet("encode", `lwm2m-codec encode - Encode YAML node documents

Usage:
  lwm2m-codec encode [flags] [file.yaml|-]

A document holds a path, an optional timestamp and a value:

  path: /Device/0/Battery Level
  value: 100
`)
	c := commonFlags(fs)
	format := fs.String("f", "", "Content format (name or code)")
	encoding := fs.String("out", commands.EncodingAuto, "Output encoding (auto, hex, base64, raw)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	file := fs.Arg(0)
	if file == "" {
		file = "-"
	}
	doc, err := commands.ReadPayload("", file, commands.EncodingRaw, os.Stdin)
	if err != nil {
		fatal(err)
	}

	env := c.env()
	defer env.Close()

	opts := commands.EncodeOptions{Format: *format, Encoding: *encoding}
	if err := commands.RunEncode(env, doc, opts, os.Stdout); err != nil {
		env.Close()
		fatal(err)
	}
}

func runConvert(args []string) {
	fs := newFlagSet("convert", `lwm2m-codec convert - Re-encode a payload in another content format

Usage:
  lwm2m-codec convert -from <format> -to <format> [flags] [file|-]
`)
	c := commonFlags(fs)
	in := newPayloadFlags(fs)
	from := fs.String("from", "", "Source content format")
	to := fs.String("to", "", "Target content format (required)")
	paths := fs.String("p", "", "Target paths, comma separated")
	encoding := fs.String("out", commands.EncodingAuto, "Output encoding (auto, hex, base64, raw)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *to == "" {
		fmt.Fprintln(os.Stderr, "Error: target format (-to) required")
		fs.Usage()
		os.Exit(1)
	}

	data := in.read(fs)
	env := c.env()
	defer env.Close()

	opts := commands.ConvertOptions{From: *from, To: *to, Encoding: *encoding}
	if *paths != "" {
		opts.Paths = []string{*paths}
	}
	if err := commands.RunConvert(env, data, opts, os.Stdout); err != nil {
		env.Close()
		fatal(err)
	}
}

func runPaths(args []string) {
	fs := newFlagSet("paths", `lwm2m-codec paths - Decode or encode a path list

Usage:
  lwm2m-codec paths [flags] [file|-]
  lwm2m-codec paths -e [flags] <path>...
`)
	c := commonFlags(fs)
	in := newPayloadFlags(fs)
	format := fs.String("f", "", "Content format (name or code)")
	encode := fs.Bool("e", false, "Encode the paths given as arguments")
	encoding := fs.String("out", commands.EncodingAuto, "Output encoding (auto, hex, base64, raw)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	if *encode {
		if fs.NArg() == 0 {
			fmt.Fprintln(os.Stderr, "Error: at least one path required")
			fs.Usage()
			os.Exit(1)
		}
		env := c.env()
		defer env.Close()
		if err := commands.RunEncodePaths(env, fs.Args(), *format, *encoding, os.Stdout); err != nil {
			env.Close()
			fatal(err)
		}
		return
	}

	data := in.read(fs)
	env := c.env()
	defer env.Close()
	if err := commands.RunDecodePaths(env, data, *format, os.Stdout); err != nil {
		env.Close()
		fatal(err)
	}
}

func runShell(args []string) {
	fs := newFlagSet("shell", `lwm2m-codec shell - Interactive codec shell

Usage:
  lwm2m-codec shell [flags]
`)
	c := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	env := c.env()
	defer env.Close()

	shell, err := commands.NewShell(env)
	if err != nil {
		env.Close()
		fatal(err)
	}
	shell.Run()
}

func runTrace(args []string) {
	if len(args) < 1 {
		fmt.Fprint(os.Stderr, traceUsage)
		os.Exit(1)
	}

	switch args[0] {
	case "view":
		runTraceView(args[1:])
	case "export":
		runTraceExport(args[1:])
	case "filter":
		runTraceFilter(args[1:])
	case "stats":
		runTraceStats(args[1:])
	case "-h", "-help", "--help", "help":
		fmt.Print(traceUsage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown trace command: %s\n", args[0])
		fmt.Fprint(os.Stderr, traceUsage)
		os.Exit(1)
	}
}

func filterFlags(fs *flag.FlagSet) *commands.TraceFilterFlags {
	f := &commands.TraceFilterFlags{}
	fs.StringVar(&f.TraceID, "trace-id", "", "Filter by trace ID")
	fs.StringVar(&f.Direction, "direction", "", "Filter by direction (decode, encode)")
	fs.StringVar(&f.Operation, "operation", "", "Filter by operation (node, timestamped, nodes, timestamped_nodes, paths)")
	fs.StringVar(&f.Format, "format", "", "Filter by content format")
	fs.StringVar(&f.PathPrefix, "path", "", "Filter by path prefix")
	fs.BoolVar(&f.ErrorsOnly, "errors", false, "Only failed calls")
	fs.StringVar(&f.TimeStart, "time-start", "", "Filter by start time (RFC3339)")
	fs.StringVar(&f.TimeEnd, "time-end", "", "Filter by end time (RFC3339)")
	return f
}

// traceFile parses args and returns the trace file argument.
func traceFile(fs *flag.FlagSet, args []string) string {
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: trace file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func runTraceView(args []string) {
	fs := newFlagSet("view", `lwm2m-codec trace view - View trace file in human-readable format

Usage:
  lwm2m-codec trace view [flags] <file.trace>
`)
	ff := filterFlags(fs)
	path := traceFile(fs, args)

	filter, err := ff.Filter()
	if err != nil {
		fatal(err)
	}
	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runTraceExport(args []string) {
	fs := newFlagSet("export", `lwm2m-codec trace export - Export trace file to JSON or CSV format

Usage:
  lwm2m-codec trace export [flags] <file.trace>
`)
	ff := filterFlags(fs)
	format := fs.String("as", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")
	path := traceFile(fs, args)

	filter, err := ff.Filter()
	if err != nil {
		fatal(err)
	}
	if err := commands.RunExport(path, *format, *output, filter); err != nil {
		fatal(err)
	}
}

func runTraceFilter(args []string) {
	fs := newFlagSet("filter", `lwm2m-codec trace filter - Filter trace file and write to new file

Usage:
  lwm2m-codec trace filter -o <out.trace> [flags] <file.trace>
`)
	ff := filterFlags(fs)
	output := fs.String("o", "", "Output file (required)")
	path := traceFile(fs, args)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	filter, err := ff.Filter()
	if err != nil {
		fatal(err)
	}
	n, err := commands.RunFilter(path, *output, filter)
	if err != nil {
		fatal(err)
	}
	fmt.Fprintf(os.Stderr, "%d events written to %s\n", n, *output)
}

func runTraceStats(args []string) {
	fs := newFlagSet("stats", `lwm2m-codec trace stats - Show statistics about the trace file

Usage:
  lwm2m-codec trace stats <file.trace>
`)
	path := traceFile(fs, args)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}
