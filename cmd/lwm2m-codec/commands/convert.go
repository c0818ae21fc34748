package commands

import (
	"fmt"
	"io"
)

// ConvertOptions specifies the source and target of the convert command.
type ConvertOptions struct {
	From     string
	To       string
	Paths    []string
	Encoding string
}

// RunConvert decodes data in one content format and writes it encoded in
// another.
func RunConvert(env *Env, data []byte, opts ConvertOptions, w io.Writer) error {
	from, err := env.Config.Format(opts.From)
	if err != nil {
		return err
	}
	to, err := env.Config.Format(opts.To)
	if err != nil {
		return err
	}
	paths, err := resolvePaths(env, opts.Paths)
	if err != nil {
		return err
	}

	var out []byte
	if len(paths) == 1 {
		n, err := env.Decoder.Decode(data, from, paths[0])
		if err != nil {
			return fmt.Errorf("decoding %s: %w", from, err)
		}
		out, err = env.Encoder.Encode(n, to, paths[0])
		if err != nil {
			return fmt.Errorf("encoding %s: %w", to, err)
		}
	} else {
		nodes, err := env.Decoder.DecodeNodes(data, from, paths)
		if err != nil {
			return fmt.Errorf("decoding %s: %w", from, err)
		}
		out, err = env.Encoder.EncodeNodes(nodes, to)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", to, err)
		}
	}
	env.Logger.Info("converted", "from", from.String(), "to", to.String(), "in", len(data), "out", len(out))
	return WritePayload(w, out, to, opts.Encoding)
}
