package packed

import (
	"bytes"
	"io"
)

// Pack returns the packed encoding of src, whose length must be a multiple
// of WordSize.
func Pack(src []byte, opts ...Option) ([]byte, error) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, DefaultBufferSize, opts...)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(src); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unpack returns the words encoded by the packed bytes in src.
func Unpack(src []byte, opts ...Option) ([]byte, error) {
	r, err := NewReader(bytes.NewReader(src), DefaultBufferSize, opts...)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return out, nil
}
