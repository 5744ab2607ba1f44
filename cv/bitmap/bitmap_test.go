package bitmap

import (
	"bytes"
	"testing"
)

func mustDense(t *testing.T, s string) Dense {
	d, err := FromString(s)
	if err != nil {
		t.Fatalf("bugged test setup: %v", err)
	}
	return d
}

func TestFromString(t *testing.T) {
	tcs := []struct {
		name  string
		in    string
		edata []byte
		elen  int
	}{
		{"empty", "", nil, 0},
		{"single byte", "110", []byte{0b110}, 3},
		{"spaces ignored", "1 0000 0001", []byte{0b1, 0b1}, 9},
		{"leading zeros kept", "0001", []byte{0b1}, 4},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			d := mustDense(t, tc.in)
			if d.Size() != tc.elen {
				t.Errorf("got bitmap of len %d, want %d", d.Size(), tc.elen)
			}
			if !bytes.Equal(d.bits, tc.edata) {
				t.Errorf("FromString(%q) bytes == %v, want %v", tc.in, d.bits, tc.edata)
			}
		})
	}
}

func TestFromStringInvalid(t *testing.T) {
	if _, err := FromString("10x1"); err == nil {
		t.Errorf("FromString accepted a non-binary digit")
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "0", "1", "101100", "000000001", "111111111111"} {
		t.Run(s, func(t *testing.T) {
			if got := mustDense(t, s).String(); got != s {
				t.Errorf("FromString(%q).String() == %q", s, got)
			}
		})
	}
}

func TestUint(t *testing.T) {
	tcs := []struct {
		in   string
		eout uint64
	}{
		{"", 0},
		{"000", 0},
		{"110", 6},
		{"00110", 6},
		{"1000000000", 1 << 9},
	}
	for _, tc := range tcs {
		if got := Uint(mustDense(t, tc.in)); got != tc.eout {
			t.Errorf("Uint(%q) == %d, want %d", tc.in, got, tc.eout)
		}
	}
}

func TestSlice(t *testing.T) {
	d := mustDense(t, "111 010 001")
	tcs := []struct {
		start, end int
		eout       string
	}{
		{0, 3, "001"},
		{3, 6, "010"},
		{6, 9, "111"},
		{2, 2, ""},
	}
	for _, tc := range tcs {
		out, err := Slice(d, tc.start, tc.end)
		if err != nil {
			t.Fatalf("Slice(%d, %d): unexpected error: %v", tc.start, tc.end, err)
		}
		if out.String() != tc.eout {
			t.Errorf("Slice(%d, %d) == %q, want %q", tc.start, tc.end, out.String(), tc.eout)
		}
	}
}

func TestSliceBounds(t *testing.T) {
	d := mustDense(t, "1010")
	for _, b := range [][2]int{{-1, 2}, {3, 2}, {0, 5}} {
		if _, err := Slice(d, b[0], b[1]); err == nil {
			t.Errorf("Slice(%d, %d) on len 4: expected an error", b[0], b[1])
		}
	}
}

func TestSet(t *testing.T) {
	d := NewDense(nil, 10)
	d.Set(9, true)
	d.Set(0, true)
	d.Set(1, true)
	d.Set(1, false)
	if got, want := d.String(), "1000000001"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSetOutOfRange(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Set past the end did not panic")
		}
	}()
	d := NewDense(nil, 3)
	d.Set(3, true)
}

func TestNewDenseMasksTrailingBits(t *testing.T) {
	d := NewDense([]byte{0xFF}, 3)
	if !bytes.Equal(d.bits, []byte{0b111}) {
		t.Errorf("got bytes %v, want [7]", d.bits)
	}
	if d.Get(5) {
		t.Errorf("bit past the end read as set")
	}
}
