package resultio

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"io"
	"net"
	"testing"

	"github.com/alan-christopher/cvcircuit/cv/sim"
	"github.com/google/go-cmp/cmp"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

func sampleResult() *sim.Result {
	return &sim.Result{
		JobID:       "job-1",
		NumQubits:   1,
		Shots:       10,
		Statevector: []complex128{complex(0.6, 0), complex(0, 0.8)},
		Counts:      map[string]int{"0": 4, "1": 6},
	}
}

func TestEncodeDecode(t *testing.T) {
	s, err := Encode(sampleResult(), map[string]interface{}{"qubits_per_mode": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := s.GetFields()["qubits_per_mode"].GetNumberValue(); got != 1 {
		t.Errorf("extra field == %v, want 1", got)
	}
	probs := s.GetFields()["probabilities"].GetListValue().GetValues()
	if len(probs) != 2 {
		t.Fatalf("got %d probabilities, want 2", len(probs))
	}
	res, err := Decode(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(sampleResult(), res); diff != "" {
		t.Errorf("Decode(Encode(r)) mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeRejectsCollidingExtra(t *testing.T) {
	if _, err := Encode(sampleResult(), map[string]interface{}{"shots": 3}); err == nil {
		t.Errorf("Encode accepted an extra field shadowing a result field")
	}
}

func TestDecodeMalformedAmplitude(t *testing.T) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"statevector": []interface{}{[]interface{}{1.0}},
	})
	if err != nil {
		t.Fatalf("bugged test setup: %v", err)
	}
	if _, err := Decode(s); err == nil {
		t.Errorf("Decode accepted a one-component amplitude")
	}
}

func TestSendReceive(t *testing.T) {
	l, r := net.Pipe()
	msg, err := Encode(sampleResult(), nil)
	if err != nil {
		t.Fatalf("bugged test setup: %v", err)
	}
	msg2 := new(structpb.Struct)

	// net.Pipe() doesn't do any sort of buffering, so we perform these
	// operations asynchronously.
	wErr := make(chan error, 1)
	rErr := make(chan error, 1)
	go func() { wErr <- NewWriter(l).Write(msg) }()
	go func() { rErr <- NewReader(r).Read(msg2) }()

	if err := <-wErr; err != nil {
		t.Fatalf("error writing message: %v", err)
	}
	if err := <-rErr; err != nil {
		t.Fatalf("error reading message: %v", err)
	}
	if !proto.Equal(msg2, msg) {
		t.Errorf("Message mangled in transit: got %v, want %v", msg2, msg)
	}
}

func TestMultipleFrames(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, job := range []string{"a", "b"} {
		res := sampleResult()
		res.JobID = job
		s, err := Encode(res, nil)
		if err != nil {
			t.Fatalf("bugged test setup: %v", err)
		}
		if err := w.Write(s); err != nil {
			t.Fatalf("error writing message: %v", err)
		}
	}
	rd := NewReader(&buf)
	for _, want := range []string{"a", "b"} {
		s := new(structpb.Struct)
		if err := rd.Read(s); err != nil {
			t.Fatalf("error reading message: %v", err)
		}
		if got := s.GetFields()["job_id"].GetStringValue(); got != want {
			t.Errorf("job_id == %q, want %q", got, want)
		}
	}
	if err := rd.Read(new(structpb.Struct)); !errors.Is(err, io.EOF) {
		t.Errorf("reading past the last frame: error == %v, want io.EOF", err)
	}
}

func TestReadInvalidLength(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int32(-4))
	if err := NewReader(&buf).Read(new(structpb.Struct)); err == nil {
		t.Errorf("Read accepted a negative frame length")
	}
}

func TestReadTruncatedBody(t *testing.T) {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, int32(10))
	buf.Write([]byte{1, 2, 3})
	if err := NewReader(&buf).Read(new(structpb.Struct)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("Read error == %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestMarshalJSON(t *testing.T) {
	s, err := Encode(sampleResult(), nil)
	if err != nil {
		t.Fatalf("bugged test setup: %v", err)
	}
	out, err := MarshalJSON(s)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if decoded["job_id"] != "job-1" {
		t.Errorf("job_id == %v, want job-1", decoded["job_id"])
	}
}
