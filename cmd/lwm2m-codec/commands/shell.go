package commands

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"gopkg.in/yaml.v3"

	"github.com/mash-protocol/lwm2m-go/pkg/inspect"
	"github.com/mash-protocol/lwm2m-go/pkg/node"
)

// Shell is an interactive session decoding and encoding payloads.
type Shell struct {
	env      *Env
	out      io.Writer
	format   string
	encoding string
	output   string
	rl       *readline.Instance
}

// NewShell creates a shell reading commands from the terminal.
func NewShell(env *Env) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "lwm2m> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	s := newShell(env, rl.Stdout())
	s.rl = rl
	return s, nil
}

func newShell(env *Env, out io.Writer) *Shell {
	return &Shell{
		env:      env,
		out:      out,
		format:   env.Config.DefaultFormat,
		encoding: EncodingAuto,
		output:   OutputTree,
	}
}

// Run reads commands until exit or end of input.
func (s *Shell) Run() {
	defer s.rl.Close()

	s.printHelp()
	for {
		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			return
		}
		if !s.Exec(line) {
			fmt.Fprintln(s.out, "Exiting...")
			return
		}
	}
}

// Exec runs one command line. It returns false when the shell should exit.
func (s *Shell) Exec(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" || strings.HasPrefix(input, "#") {
		return true
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	var err error
	switch cmd {
	case "help", "?":
		s.printHelp()

	case "format", "f":
		err = s.cmdFormat(args)

	case "encoding", "enc":
		err = s.cmdEncoding(args)

	case "output", "o":
		err = s.cmdOutput(args)

	case "decode", "d":
		err = s.cmdDecode(args, false)

	case "history", "ts":
		err = s.cmdDecode(args, true)

	case "encode", "e":
		err = s.cmdEncode(args)

	case "convert", "c":
		err = s.cmdConvert(args)

	case "paths":
		err = s.cmdPaths(args)

	case "objects", "ls":
		s.cmdObjects()

	case "object", "obj":
		err = s.cmdObject(args)

	case "quit", "exit", "q":
		return false

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	if err != nil {
		fmt.Fprintf(s.out, "Error: %v\n", err)
	}
	return true
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out, `
LWM2M Codec Shell:
  Settings:
    format [name]                  - Show or set the content format
    encoding [auto|hex|base64|raw] - Show or set the payload encoding
    output [tree|yaml]             - Show or set the decode output

  Codec:
    decode <payload> [paths]       - Decode a payload (paths comma separated)
    history <payload> [paths]      - Decode timestamped values
    encode <path> <value>          - Encode a single value
    convert <format> <payload> [paths]
                                   - Re-encode a payload in another format
    paths <payload>                - Decode a path list
    paths -e <path>...             - Encode a path list

  Model:
    objects                        - List known objects
    object <id|name>               - Show the resources of an object

  quit                             - Leave the shell
`)
}

func (s *Shell) cmdFormat(args []string) error {
	if len(args) == 0 {
		f, err := s.env.Config.Format(s.format)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "format: %s (%d, %s)\n", f, f, f.MediaType())
		return nil
	}
	name := strings.Join(args, " ")
	f, err := s.env.Config.Format(name)
	if err != nil {
		return err
	}
	s.format = strconv.Itoa(int(f))
	fmt.Fprintf(s.out, "format: %s\n", f)
	return nil
}

func (s *Shell) cmdEncoding(args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(s.out, "encoding: %s\n", s.encoding)
		return nil
	}
	switch e := strings.ToLower(args[0]); e {
	case EncodingAuto, EncodingHex, EncodingBase64, EncodingRaw:
		s.encoding = e
	default:
		return fmt.Errorf("unknown encoding: %s (supported: auto, hex, base64, raw)", args[0])
	}
	fmt.Fprintf(s.out, "encoding: %s\n", s.encoding)
	return nil
}

func (s *Shell) cmdOutput(args []string) error {
	if len(args) == 0 {
		fmt.Fprintf(s.out, "output: %s\n", s.output)
		return nil
	}
	if _, err := yamlOutput(args[0]); err != nil {
		return err
	}
	s.output = strings.ToLower(args[0])
	fmt.Fprintf(s.out, "output: %s\n", s.output)
	return nil
}

// payload decodes an inline payload argument.
func (s *Shell) payload(arg string) ([]byte, error) {
	return ReadPayload(arg, "", s.encoding, nil)
}

func (s *Shell) cmdDecode(args []string, timestamped bool) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: decode <payload> [paths]")
	}
	data, err := s.payload(args[0])
	if err != nil {
		return err
	}
	return RunDecode(s.env, data, DecodeOptions{
		Format:      s.format,
		Paths:       shellPaths(args[1:]),
		Timestamped: timestamped,
		Output:      s.output,
	}, s.out)
}

// shellPaths joins the path arguments. Resource names may contain
// spaces, so only commas separate paths.
func shellPaths(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	return parseList(strings.Join(args, " "))
}

func (s *Shell) cmdEncode(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: encode <path> <value>")
	}
	f, err := s.env.Config.Format(s.format)
	if err != nil {
		return err
	}
	doc := Document{
		Path:  args[0],
		Value: yaml.Node{Kind: yaml.ScalarNode, Value: strings.Join(args[1:], " ")},
	}
	p, n, err := doc.Node(s.env.Model)
	if err != nil {
		return err
	}
	out, err := s.env.Encoder.Encode(n, f, p)
	if err != nil {
		return err
	}
	return WritePayload(s.out, out, f, s.encoding)
}

func (s *Shell) cmdConvert(args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: convert <format> <payload> [paths]")
	}
	data, err := s.payload(args[1])
	if err != nil {
		return err
	}
	return RunConvert(s.env, data, ConvertOptions{
		From:     s.format,
		To:       args[0],
		Paths:    shellPaths(args[2:]),
		Encoding: s.encoding,
	}, s.out)
}

func (s *Shell) cmdPaths(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: paths <payload> | paths -e <path>...")
	}
	if args[0] == "-e" {
		return RunEncodePaths(s.env, shellPaths(args[1:]), s.format, s.encoding, s.out)
	}
	data, err := s.payload(args[0])
	if err != nil {
		return err
	}
	return RunDecodePaths(s.env, data, s.format, s.out)
}

func (s *Shell) cmdObjects() {
	for _, o := range s.env.Model.Objects() {
		kind := "single"
		if o.Multiple {
			kind = "multiple"
		}
		fmt.Fprintf(s.out, "  %5d  %-40s %s\n", o.ID, o.Name, kind)
	}
}

func (s *Shell) cmdObject(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: object <id|name>")
	}
	name := strings.Join(args, " ")
	p, err := inspect.ResolvePath(s.env.Model, "/"+strings.TrimPrefix(name, "/"))
	if err != nil {
		return err
	}
	if p.Kind() != node.KindObject {
		return fmt.Errorf("not an object: %s", name)
	}
	o, ok := s.env.Model.Object(p.ObjectID())
	if !ok {
		return fmt.Errorf("%w: object %d", inspect.ErrUnknownName, p.ObjectID())
	}

	fmt.Fprintf(s.out, "%s [%d] version %s\n", o.Name, o.ID, o.Version)
	for _, r := range o.Resources() {
		multi := ""
		if r.Multiple {
			multi = ", multiple"
		}
		units := ""
		if r.Units != "" {
			units = " " + r.Units
		}
		fmt.Fprintf(s.out, "  %5d  %-40s %s%s, %s%s\n", r.ID, r.Name, r.Type, multi, r.Operations, units)
	}
	return nil
}
