package commands

import (
	"io"
)

// RunDecodePaths decodes a path list and writes one path per line.
func RunDecodePaths(env *Env, data []byte, format string, w io.Writer) error {
	f, err := env.Config.Format(format)
	if err != nil {
		return err
	}
	paths, err := env.Decoder.DecodePaths(data, f)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, env.Formatter.FormatPaths(paths))
	return err
}

// RunEncodePaths encodes a path list. Paths may be given by name.
func RunEncodePaths(env *Env, inputs []string, format, encoding string, w io.Writer) error {
	f, err := env.Config.Format(format)
	if err != nil {
		return err
	}
	paths, err := resolvePaths(env, inputs)
	if err != nil {
		return err
	}
	out, err := env.Encoder.EncodePaths(paths, f)
	if err != nil {
		return err
	}
	return WritePayload(w, out, f, encoding)
}
