// Package wire is the entry point for LWM2M payloads: it picks the codec of
// a content format and runs it with the configured object model.
//
// A Decoder and an Encoder hold the codecs of the registered formats (TEXT,
// OPAQUE, CBOR, TLV, JSON, SenML-JSON and SenML-CBOR, plus the LWM2M 1.0
// codes of TLV and JSON). Formats a codec can not serve, such as a
// timestamped TEXT history of several values, fail with
// codec.ErrUnsupported; unknown formats fail with
// codec.ErrUnsupportedFormat.
//
// # Usage
//
//	dec := wire.NewDecoder(wire.WithModel(model.Default()))
//	n, err := dec.Decode(payload, codec.FormatTLV, node.MustPath(3, 0))
//
//	enc := wire.NewEncoder(wire.WithModel(model.Default()))
//	out, err := enc.Encode(n, codec.FormatSenMLJSON, node.MustPath(3, 0))
//
// Decoders and encoders are safe for concurrent use once built. Every call
// can be traced to a log.Logger (see WithTraceLogger).
package wire
