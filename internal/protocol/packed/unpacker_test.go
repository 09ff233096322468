package packed

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"testing/iotest"
)

func TestUnpackSingleZeroWord(t *testing.T) {
	out, err := Unpack([]byte{0x00, 0x00})
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if !bytes.Equal(out, make([]byte, 8)) {
		t.Fatalf("expected one zero word, got %v", out)
	}
}

func TestUnpackZeroRunCount(t *testing.T) {
	out, err := Unpack([]byte{0x00, 0x03})
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	if len(out) != 4*WordSize {
		t.Fatalf("expected 4 zero words, got %d bytes", len(out))
	}
	for i, b := range out {
		if b != 0 {
			t.Fatalf("byte %d not zero: %d", i, b)
		}
	}
}

func TestUnpackLiteralTag(t *testing.T) {
	out, err := Unpack([]byte{0xA1, 1, 2, 3})
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	want := []byte{1, 0, 2, 0, 0, 0, 0, 3}
	if !bytes.Equal(out, want) {
		t.Fatalf("got %v want %v", out, want)
	}
}

func TestUnpackRawRun(t *testing.T) {
	in := []byte{0xFF, 1, 2, 3, 4, 5, 6, 7, 8, 0x02}
	extra := []byte{0, 0, 0, 0, 0, 0, 0, 0, 9, 10, 11, 12, 13, 14, 15, 16}
	in = append(in, extra...)

	out, err := Unpack(in)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	want := append([]byte{1, 2, 3, 4, 5, 6, 7, 8}, extra...)
	if !bytes.Equal(out, want) {
		t.Fatalf("got %v want %v", out, want)
	}
}

func TestUnpackRawRunZeroCount(t *testing.T) {
	in := []byte{0xFF, 1, 2, 3, 4, 5, 6, 7, 8, 0x00, 0x01, 9}
	out, err := Unpack(in)
	if err != nil {
		t.Fatalf("unpack: %v", err)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 0, 0, 0, 0, 0, 0, 0}
	if !bytes.Equal(out, want) {
		t.Fatalf("got %v want %v", out, want)
	}
}

func TestUnpackEmptyStreamIsClean(t *testing.T) {
	out, err := Unpack(nil)
	if err != nil {
		t.Fatalf("unpack empty: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no output, got %d bytes", len(out))
	}
}

func TestUnpackTruncatedAfterLiteralTag(t *testing.T) {
	_, err := Unpack([]byte{0x01})
	if !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected *MalformedError, got %T", err)
	}
	if malformed.State != "literal" || malformed.Offset != 1 {
		t.Fatalf("unexpected malformed detail: %+v", malformed)
	}
}

func TestUnpackTruncationIsDeterministic(t *testing.T) {
	cases := []struct {
		name  string
		in    []byte
		state string
	}{
		{name: "zero count", in: []byte{0x00}, state: "zero_count"},
		{name: "raw word", in: []byte{0xFF, 1, 2, 3}, state: "raw_word"},
		{name: "raw count", in: []byte{0xFF, 1, 2, 3, 4, 5, 6, 7, 8}, state: "raw_count"},
		{name: "raw run", in: []byte{0xFF, 1, 2, 3, 4, 5, 6, 7, 8, 0x02, 1, 2, 3, 4, 5, 6, 7, 8}, state: "raw_run"},
		{name: "literal tail", in: []byte{0x81, 5}, state: "literal"},
		{name: "after complete word", in: []byte{0x00, 0x00, 0x03, 1}, state: "literal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Unpack(tc.in)
			var malformed *MalformedError
			if !errors.As(err, &malformed) {
				t.Fatalf("expected *MalformedError, got %v", err)
			}
			if malformed.State != tc.state {
				t.Fatalf("state mismatch: got %q want %q", malformed.State, tc.state)
			}
			if malformed.Offset != int64(len(tc.in)) {
				t.Fatalf("offset mismatch: got %d want %d", malformed.Offset, len(tc.in))
			}
		})
	}
}

func TestUnpackerResumesAcrossOneByteReads(t *testing.T) {
	packed := []byte{
		0x00, 0x01, // two zero words
		0xA1, 1, 2, 3,
		0xFF, 1, 2, 3, 4, 5, 6, 7, 8, 0x01, 9, 9, 9, 9, 9, 9, 9, 9,
		0x80, 7,
	}
	want, err := Unpack(packed)
	if err != nil {
		t.Fatalf("unpack reference: %v", err)
	}

	u, err := NewUnpacker(iotest.OneByteReader(bytes.NewReader(packed)), 1)
	if err != nil {
		t.Fatalf("new unpacker: %v", err)
	}
	var got []byte
	chunk := make([]byte, 3)
	for {
		n, err := u.Fill(chunk)
		got = append(got, chunk[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("fill: %v", err)
		}
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("resumed output mismatch\ngot:  %v\nwant: %v", got, want)
	}
	if u.Consumed() != int64(len(packed)) {
		t.Fatalf("consumed=%d want %d", u.Consumed(), len(packed))
	}
	if u.Produced() != int64(len(want)) {
		t.Fatalf("produced=%d want %d", u.Produced(), len(want))
	}
}

func TestUnpackerHandlesDataWithEOF(t *testing.T) {
	src := iotest.DataErrReader(bytes.NewReader([]byte{0xA1, 1, 2, 3, 0x00, 0x00}))
	r, err := NewReader(src, 64)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	out, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read all: %v", err)
	}
	if len(out) != 2*WordSize {
		t.Fatalf("expected 2 words, got %d bytes", len(out))
	}
}

func TestUnpackerPropagatesSourceError(t *testing.T) {
	boom := errors.New("source failed")
	u, err := NewUnpacker(iotest.ErrReader(boom), 16)
	if err != nil {
		t.Fatalf("new unpacker: %v", err)
	}
	_, err = u.Fill(make([]byte, 8))
	if !errors.Is(err, boom) {
		t.Fatalf("expected source error, got %v", err)
	}
	if errors.Is(err, ErrMalformed) {
		t.Fatalf("source error must not be reported as malformed")
	}
}

type stalledReader struct{}

func (stalledReader) Read([]byte) (int, error) { return 0, nil }

func TestUnpackerNoProgress(t *testing.T) {
	u, err := NewUnpacker(stalledReader{}, 16)
	if err != nil {
		t.Fatalf("new unpacker: %v", err)
	}
	_, err = u.Fill(make([]byte, 8))
	if !errors.Is(err, io.ErrNoProgress) {
		t.Fatalf("expected io.ErrNoProgress, got %v", err)
	}
}

func TestUnpackerErrorsAreSticky(t *testing.T) {
	u, err := NewUnpacker(bytes.NewReader([]byte{0x01}), 16)
	if err != nil {
		t.Fatalf("new unpacker: %v", err)
	}
	for i := 0; i < 3; i++ {
		n, err := u.Fill(make([]byte, 8))
		if n != 0 || !errors.Is(err, ErrMalformed) {
			t.Fatalf("attempt %d: n=%d err=%v", i, n, err)
		}
	}
}

func TestUnpackerEmptyDestination(t *testing.T) {
	u, err := NewUnpacker(bytes.NewReader([]byte{0x00, 0x00}), 16)
	if err != nil {
		t.Fatalf("new unpacker: %v", err)
	}
	n, err := u.Fill(nil)
	if n != 0 || err != nil {
		t.Fatalf("expected no-op fill, got n=%d err=%v", n, err)
	}
	if u.Consumed() != 0 {
		t.Fatalf("empty fill must not consume input")
	}
}

func TestReaderNeverPadsTruncatedWord(t *testing.T) {
	cases := []struct {
		name  string
		in    []byte
		state string
	}{
		{name: "late literal bit", in: []byte{0x80}, state: "literal"},
		{name: "missing second literal", in: []byte{0x81, 5}, state: "literal"},
		{name: "short raw word", in: []byte{0xFF, 1, 2, 3}, state: "raw_word"},
		{name: "short raw extra", in: []byte{0xFF, 1, 2, 3, 4, 5, 6, 7, 8, 0x01, 9, 9}, state: "raw_run"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := NewReader(bytes.NewReader(tc.in), 16)
			if err != nil {
				t.Fatalf("new reader: %v", err)
			}
			buf := make([]byte, 64)
			n, err := r.Read(buf)
			if tc.state == "raw_run" {
				// the complete leading word is delivered first
				if n != WordSize || err != nil {
					t.Fatalf("first read: n=%d err=%v", n, err)
				}
				n, err = r.Read(buf)
			}
			if n != 0 || !errors.Is(err, ErrMalformed) {
				t.Fatalf("expected n=0 and ErrMalformed, got n=%d err=%v", n, err)
			}
			var malformed *MalformedError
			if !errors.As(err, &malformed) || malformed.State != tc.state {
				t.Fatalf("unexpected malformed detail: %v", err)
			}
		})
	}
}

func TestReadFullStopsAtLastWholeWord(t *testing.T) {
	in := []byte{0x00, 0x00, 0x80}
	r, err := NewReader(iotest.OneByteReader(bytes.NewReader(in)), 1)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	buf := make([]byte, 2*WordSize)
	n, err := io.ReadFull(r, buf)
	if n != WordSize || !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected one whole word then ErrMalformed, got n=%d err=%v", n, err)
	}
}

func TestUnpackerStagesWordAcrossSmallDestination(t *testing.T) {
	in := []byte{0xFF, 1, 2, 3, 4, 5, 6, 7, 8, 0x01, 9, 10, 11, 12, 13, 14, 15, 16, 0x81, 5, 6}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 5, 0, 0, 0, 0, 0, 0, 6}
	u, err := NewUnpacker(iotest.HalfReader(bytes.NewReader(in)), 4)
	if err != nil {
		t.Fatalf("new unpacker: %v", err)
	}
	var got []byte
	chunk := make([]byte, 3)
	for {
		n, err := u.Fill(chunk)
		got = append(got, chunk[:n]...)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("fill: %v", err)
		}
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v want %v", got, want)
	}
}
