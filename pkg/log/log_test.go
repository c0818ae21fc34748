package log

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/mash-protocol/lwm2m-go/pkg/codec"
)

func testEvent(id string) Event {
	return Event{
		Timestamp: time.Date(2026, 3, 1, 12, 0, 0, 123456789, time.UTC),
		TraceID:   id,
		Direction: DirectionDecode,
		Operation: OperationNode,
		Format:    codec.FormatSenMLJSON,
		Path:      "/3/0",
		Size:      42,
		NodeKind:  "OBJECT_INSTANCE",
	}
}

func TestEventRoundTrip(t *testing.T) {
	event := testEvent("a")
	event.SetPayload([]byte(`[{"bn":"/3/0/","n":"0","vs":"x"}]`))
	event.Error = &ErrorData{Message: "boom", Kind: "malformed"}
	event.Duration = 1500 * time.Microsecond

	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	decoded, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !decoded.Timestamp.Equal(event.Timestamp) {
		t.Errorf("Timestamp: got %v, want %v", decoded.Timestamp, event.Timestamp)
	}
	if decoded.Format != codec.FormatSenMLJSON {
		t.Errorf("Format: got %v", decoded.Format)
	}
	if !bytes.Equal(decoded.Payload, event.Payload) {
		t.Errorf("Payload: got %q", decoded.Payload)
	}
	if decoded.Size != len(event.Payload) {
		t.Errorf("Size: got %d", decoded.Size)
	}
	if decoded.Error == nil || decoded.Error.Kind != "malformed" {
		t.Errorf("Error: got %+v", decoded.Error)
	}
	if decoded.Duration != event.Duration {
		t.Errorf("Duration: got %v", decoded.Duration)
	}
}

func TestEventEncoding(t *testing.T) {
	event := testEvent("a")
	data, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	again, err := EncodeEvent(event)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	if !bytes.Equal(data, again) {
		t.Error("expected equal events to encode to equal bytes")
	}

	var fields map[int]cbor.RawMessage
	if err := cbor.Unmarshal(data, &fields); err != nil {
		t.Fatalf("event is not a CBOR map: %v", err)
	}
	// Tag 0 (0xc0) marks the RFC 3339 timestamp.
	if ts := fields[1]; len(ts) == 0 || ts[0] != 0xc0 {
		t.Errorf("expected tagged timestamp, got %x", ts)
	}

	// Untagged timestamps from other writers still decode.
	untagged, err := cbor.Marshal(map[int]any{1: "2026-03-01T12:00:00Z", 2: "b", 5: 110})
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := DecodeEvent(untagged)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}
	if decoded.TraceID != "b" || decoded.Timestamp.Year() != 2026 {
		t.Errorf("unexpected event: %+v", decoded)
	}
}

func TestSetPayloadTruncates(t *testing.T) {
	var e Event
	data := bytes.Repeat([]byte{0xab}, MaxPayload+10)
	e.SetPayload(data)

	if e.Size != MaxPayload+10 {
		t.Errorf("Size: got %d", e.Size)
	}
	if len(e.Payload) != MaxPayload || !e.Truncated {
		t.Errorf("got %d bytes, truncated=%v", len(e.Payload), e.Truncated)
	}
	data[0] = 0
	if e.Payload[0] != 0xab {
		t.Error("payload shares memory with the input")
	}

	e.SetPayload(nil)
	if e.Payload != nil || e.Truncated || e.Size != 0 {
		t.Errorf("empty payload: got %+v", e)
	}
}

func TestNames(t *testing.T) {
	if DirectionEncode.String() != "ENCODE" || Direction(9).String() != "UNKNOWN" {
		t.Error("unexpected direction names")
	}
	if d, ok := ParseDirection("decode"); !ok || d != DirectionDecode {
		t.Errorf("ParseDirection(decode) = %v, %v", d, ok)
	}
	if _, ok := ParseDirection("sideways"); ok {
		t.Error("ParseDirection accepted an unknown name")
	}
	if o, ok := ParseOperation("timestamped-nodes"); !ok || o != OperationTimestampedNodes {
		t.Errorf("ParseOperation = %v, %v", o, ok)
	}
	if Operation(42).String() != "UNKNOWN" {
		t.Error("unexpected operation name")
	}
}

func TestFileLoggerAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codec.ltrace")

	for _, id := range []string{"a", "b"} {
		l, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger failed: %v", err)
		}
		l.Log(testEvent(id))
		if err := l.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()

	events, err := r.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(events) != 2 || events[0].TraceID != "a" || events[1].TraceID != "b" {
		t.Fatalf("got %+v", events)
	}
}

func TestFileLoggerClose(t *testing.T) {
	l, err := NewFileLogger(filepath.Join(t.TempDir(), "codec.ltrace"))
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}
	l.Log(testEvent("late"))
	if l.Dropped() != 1 {
		t.Errorf("Dropped: got %d, want 1", l.Dropped())
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "codec.ltrace")
	l, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 25 {
				l.Log(testEvent(string(rune('a' + i))))
			}
		}()
	}
	wg.Wait()
	l.Close()

	r, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()
	events, err := r.All()
	if err != nil {
		t.Fatalf("All failed: %v", err)
	}
	if len(events) != 200 {
		t.Errorf("got %d events, want 200", len(events))
	}
}

func TestReaderFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewStreamLogger(nopCloser{&buf})

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []Event{
		{Timestamp: base, TraceID: "1", Direction: DirectionDecode, Operation: OperationNode, Format: codec.FormatTLV, Path: "/3/0"},
		{Timestamp: base.Add(time.Second), TraceID: "2", Direction: DirectionEncode, Operation: OperationNode, Format: codec.FormatLegacyTLV, Path: "/3/0/1"},
		{Timestamp: base.Add(2 * time.Second), TraceID: "3", Direction: DirectionDecode, Operation: OperationPaths, Format: codec.FormatSenMLCBOR, Path: "/1/0",
			Error: &ErrorData{Message: "bad"}},
	}
	for _, e := range events {
		l.Log(e)
	}
	data := buf.Bytes()

	decode, paths := DirectionDecode, OperationPaths
	tlv := codec.FormatTLV
	start, end := base.Add(time.Second), base.Add(2*time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"all", Filter{}, []string{"1", "2", "3"}},
		{"trace id", Filter{TraceID: "2"}, []string{"2"}},
		{"direction", Filter{Direction: &decode}, []string{"1", "3"}},
		{"operation", Filter{Operation: &paths}, []string{"3"}},
		{"format with legacy code", Filter{Format: &tlv}, []string{"1", "2"}},
		{"path prefix", Filter{PathPrefix: "/3/0"}, []string{"1", "2"}},
		{"errors only", Filter{ErrorsOnly: true}, []string{"3"}},
		{"time window", Filter{TimeStart: &start, TimeEnd: &end}, []string{"2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewStreamReader(bytes.NewReader(data), tt.filter)
			var got []string
			for {
				e, err := r.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					t.Fatalf("Next failed: %v", err)
				}
				got = append(got, e.TraceID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestReaderMissingFile(t *testing.T) {
	_, err := NewReader(filepath.Join(t.TempDir(), "missing"))
	if !os.IsNotExist(err) {
		t.Errorf("got %v, want not-exist", err)
	}
}

func TestReaderCorruptTrace(t *testing.T) {
	r := NewStreamReader(bytes.NewReader([]byte{0xff, 0x00}), Filter{})
	if _, err := r.Next(); err == nil || err == io.EOF {
		t.Errorf("got %v, want a decode error", err)
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	adapter := NewSlogAdapter(logger)

	event := testEvent("abc")
	event.SetPayload([]byte{0xc8, 0x00, 0x01})
	adapter.Log(event)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	want := map[string]any{
		"level":     "DEBUG",
		"msg":       "codec",
		"trace_id":  "abc",
		"direction": "DECODE",
		"operation": "NODE",
		"format":    "SENML_JSON",
		"path":      "/3/0",
		"payload":   "c80001",
		"node_kind": "OBJECT_INSTANCE",
	}
	for k, v := range want {
		if entry[k] != v {
			t.Errorf("%s: got %v, want %v", k, entry[k], v)
		}
	}

	buf.Reset()
	event.Error = &ErrorData{Message: "bad", Kind: "malformed"}
	adapter.Log(event)
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output: %v", err)
	}
	if entry["level"] != "WARN" || entry["error_kind"] != "malformed" {
		t.Errorf("got %v", entry)
	}
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Log(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestMultiLogger(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	m := NewMultiLogger(a, nil, NoopLogger{}, b)
	if m.Len() != 3 {
		t.Errorf("Len: got %d, want 3", m.Len())
	}

	m.Log(testEvent("x"))
	if len(a.events) != 1 || len(b.events) != 1 {
		t.Errorf("got %d and %d events", len(a.events), len(b.events))
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
