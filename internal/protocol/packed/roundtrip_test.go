package packed

import (
	"bytes"
	"io"
	"math/rand/v2"
	"testing"
	"testing/iotest"
)

// mixedWords builds n words cycling through zero, dense, sparse and random
// shapes, with run lengths long enough to hit both caps.
func mixedWords(n int, seed uint64) []byte {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	out := make([]byte, 0, n*WordSize)
	for len(out) < n*WordSize {
		kind := rng.IntN(4)
		run := 1 + rng.IntN(300)
		for i := 0; i < run && len(out) < n*WordSize; i++ {
			word := make([]byte, WordSize)
			switch kind {
			case 1:
				for j := range word {
					word[j] = byte(1 + rng.IntN(255))
				}
			case 2:
				word[rng.IntN(WordSize)] = byte(1 + rng.IntN(255))
			case 3:
				for j := range word {
					if rng.IntN(2) == 0 {
						word[j] = byte(rng.IntN(256))
					}
				}
			}
			out = append(out, word...)
		}
	}
	return out
}

func TestRoundTripShapes(t *testing.T) {
	cases := map[string][]byte{
		"empty":      nil,
		"one zero":   make([]byte, WordSize),
		"many zeros": make([]byte, 1000*WordSize),
		"dense":      bytes.Repeat([]byte{0xAB}, 600*WordSize),
		"mixed":      mixedWords(2000, 1),
		"mixed alt":  mixedWords(513, 42),
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			packed, err := Pack(src)
			if err != nil {
				t.Fatalf("pack: %v", err)
			}
			out, err := Unpack(packed)
			if err != nil {
				t.Fatalf("unpack: %v", err)
			}
			if !bytes.Equal(out, src) {
				t.Fatalf("round trip mismatch: got %d bytes want %d", len(out), len(src))
			}
		})
	}
}

func TestRoundTripOverHostileReaders(t *testing.T) {
	src := mixedWords(700, 9)
	packed, err := Pack(src)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}

	readers := map[string]func(io.Reader) io.Reader{
		"one byte": iotest.OneByteReader,
		"half":     iotest.HalfReader,
		"data err": iotest.DataErrReader,
	}
	for name, wrap := range readers {
		for _, size := range []int{1, 7, 64} {
			r, err := NewReader(wrap(bytes.NewReader(packed)), size)
			if err != nil {
				t.Fatalf("%s size=%d new reader: %v", name, size, err)
			}
			out, err := io.ReadAll(iotest.OneByteReader(r))
			if err != nil {
				t.Fatalf("%s size=%d read: %v", name, size, err)
			}
			if !bytes.Equal(out, src) {
				t.Fatalf("%s size=%d output mismatch", name, size)
			}
		}
	}
}

func TestReaderPassesIOTest(t *testing.T) {
	src := mixedWords(64, 3)
	packed, err := Pack(src)
	if err != nil {
		t.Fatalf("pack: %v", err)
	}
	r, err := NewReader(bytes.NewReader(packed), 16)
	if err != nil {
		t.Fatalf("new reader: %v", err)
	}
	// hide Seek: iotest probes it on any io.Seeker
	if err := iotest.TestReader(struct{ io.Reader }{r}, src); err != nil {
		t.Fatalf("iotest: %v", err)
	}
}

func FuzzUnpackRepack(f *testing.F) {
	f.Add([]byte{0x00, 0x00})
	f.Add([]byte{0xA1, 1, 2, 3})
	f.Add([]byte{0xFF, 1, 2, 3, 4, 5, 6, 7, 8, 0x00})
	f.Add([]byte{0x01})
	f.Fuzz(func(t *testing.T, in []byte) {
		words, err := Unpack(in)
		if err != nil {
			return
		}
		if len(words)%WordSize != 0 {
			t.Fatalf("decoded %d bytes, not word aligned", len(words))
		}
		packed, err := Pack(words)
		if err != nil {
			t.Fatalf("repack: %v", err)
		}
		again, err := Unpack(packed)
		if err != nil {
			t.Fatalf("unpack repacked: %v", err)
		}
		if !bytes.Equal(again, words) {
			t.Fatalf("repacked stream decodes differently")
		}
	})
}
