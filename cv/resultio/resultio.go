// Package resultio serializes simulation results as protocol buffers, either
// as length-prefixed binary frames or as JSON.
//
// The frame structure is trivial: proto-length | proto, with the length an
// int32 in little endian order.
package resultio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/alan-christopher/cvcircuit/cv/sim"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// MaxFrameBytes bounds the size of a single frame accepted by a Reader.
const MaxFrameBytes = 1 << 28

// Encode converts res into a Struct with fields job_id, num_qubits, shots,
// statevector (a list of [re, im] pairs), probabilities and counts. Entries
// of extra are added alongside and must be convertible by structpb.
func Encode(res *sim.Result, extra map[string]interface{}) (*structpb.Struct, error) {
	amps := make([]interface{}, 0, len(res.Statevector))
	for _, a := range res.Statevector {
		amps = append(amps, []interface{}{real(a), imag(a)})
	}
	probs := make([]interface{}, 0, len(res.Statevector))
	for _, p := range res.Probabilities() {
		probs = append(probs, p)
	}
	counts := make(map[string]interface{}, len(res.Counts))
	for k, v := range res.Counts {
		counts[k] = v
	}
	fields := map[string]interface{}{
		"job_id":        res.JobID,
		"num_qubits":    res.NumQubits,
		"shots":         res.Shots,
		"statevector":   amps,
		"probabilities": probs,
		"counts":        counts,
	}
	for k, v := range extra {
		if _, ok := fields[k]; ok {
			return nil, fmt.Errorf("extra field %q collides with a result field", k)
		}
		fields[k] = v
	}
	s, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, fmt.Errorf("encoding result: %w", err)
	}
	return s, nil
}

// Decode rebuilds the result fields of a Struct produced by Encode.
func Decode(s *structpb.Struct) (*sim.Result, error) {
	f := s.GetFields()
	res := &sim.Result{
		JobID:     f["job_id"].GetStringValue(),
		NumQubits: int(f["num_qubits"].GetNumberValue()),
		Shots:     int(f["shots"].GetNumberValue()),
		Counts:    make(map[string]int),
	}
	for i, v := range f["statevector"].GetListValue().GetValues() {
		pair := v.GetListValue().GetValues()
		if len(pair) != 2 {
			return nil, fmt.Errorf("statevector entry %d has %d components, want 2", i, len(pair))
		}
		res.Statevector = append(res.Statevector, complex(pair[0].GetNumberValue(), pair[1].GetNumberValue()))
	}
	for k, v := range f["counts"].GetStructValue().GetFields() {
		res.Counts[k] = int(v.GetNumberValue())
	}
	return res, nil
}

// MarshalJSON renders m with protojson, indented for humans.
func MarshalJSON(m proto.Message) ([]byte, error) {
	return protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(m)
}

// A Writer writes framed protocol buffers to an underlying io.Writer.
type Writer struct {
	w io.Writer
}

// NewWriter returns a Writer framing messages onto w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (p *Writer) Write(m proto.Message) error {
	marshalled, err := proto.Marshal(m)
	if err != nil {
		return err
	}
	if len(marshalled) > math.MaxInt32 {
		return fmt.Errorf("message of %d bytes does not fit a frame", len(marshalled))
	}
	if err := binary.Write(p.w, binary.LittleEndian, int32(len(marshalled))); err != nil {
		return err
	}
	if _, err := p.w.Write(marshalled); err != nil {
		return err
	}
	return nil
}

// A Reader reads framed protocol buffers from an underlying io.Reader.
type Reader struct {
	r io.Reader
}

// NewReader returns a Reader consuming frames from r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Read decodes the next frame into m. It returns io.EOF when no frames
// remain.
func (p *Reader) Read(m proto.Message) error {
	var mLen int32
	if err := binary.Read(p.r, binary.LittleEndian, &mLen); err != nil {
		return err
	}
	if mLen < 0 || mLen > MaxFrameBytes {
		return fmt.Errorf("invalid frame length %d", mLen)
	}
	marshalled := make([]byte, mLen)
	if _, err := io.ReadFull(p.r, marshalled); err != nil {
		return fmt.Errorf("reading frame body: %w", err)
	}
	return proto.Unmarshal(marshalled, m)
}
