package main

import (
	"errors"
	"io"

	"github.com/danmuck/packwire/internal/config"
	"github.com/danmuck/packwire/internal/protocol"
	"github.com/danmuck/packwire/internal/protocol/frame"
	"github.com/danmuck/packwire/internal/protocol/packed"
	"github.com/rs/zerolog"
)

// runPack packs in to out. Framed input is validated message by message.
func runPack(in io.Reader, out io.Writer, cfg config.PackctlConfig, logger zerolog.Logger) (packed.Stats, error) {
	if cfg.Framed {
		return packFramed(in, out, cfg, logger)
	}
	w, err := packed.NewWriter(out, cfg.Codec.BufferSize, packed.WithLogger(logger))
	if err != nil {
		return packed.Stats{}, err
	}
	_, err = io.Copy(w, in)
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	return w.Stats(), err
}

func runUnpack(in io.Reader, out io.Writer, cfg config.PackctlConfig, logger zerolog.Logger) (packed.Stats, error) {
	if cfg.Framed {
		return unpackFramed(in, out, cfg, logger)
	}
	r, err := packed.NewReader(in, cfg.Codec.BufferSize, packed.WithLogger(logger))
	if err != nil {
		return packed.Stats{}, err
	}
	defer r.Close()
	_, err = io.Copy(out, r)
	if err == nil {
		err = flushOutput(out)
	}
	return r.Stats(), err
}

func packFramed(in io.Reader, out io.Writer, cfg config.PackctlConfig, logger zerolog.Logger) (packed.Stats, error) {
	stats := packed.Stats{}
	counter := &countingWriter{w: out}
	opts := cfg.Codec.ProtocolOptions()
	opts.Logger = &logger
	enc, err := protocol.NewEncoder(counter, opts)
	if err != nil {
		return stats, err
	}
	for {
		msg, err := frame.ReadMessage(in, opts.Limits)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, errors.Join(err, enc.Close())
		}
		if err := enc.Encode(msg); err != nil {
			return stats, errors.Join(err, enc.Close())
		}
		stats.UnpackedBytes += int64(frame.HeaderLen(len(msg.Segments))) + int64(msg.Words()*frame.WordSize)
	}
	err = enc.Close()
	stats.PackedBytes = counter.n
	logger.Info().Uint64("messages", enc.Messages()).Msg("packctl framed pack done")
	return stats, err
}

func unpackFramed(in io.Reader, out io.Writer, cfg config.PackctlConfig, logger zerolog.Logger) (packed.Stats, error) {
	stats := packed.Stats{}
	counter := &countingReader{r: in}
	opts := cfg.Codec.ProtocolOptions()
	opts.Logger = &logger
	dec, err := protocol.NewDecoder(counter, opts)
	if err != nil {
		return stats, err
	}
	defer dec.Close()
	for {
		msg, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return stats, err
		}
		if err := frame.WriteMessage(out, msg, opts.Limits); err != nil {
			return stats, err
		}
		stats.UnpackedBytes += int64(frame.HeaderLen(len(msg.Segments))) + int64(msg.Words()*frame.WordSize)
	}
	stats.PackedBytes = counter.n
	logger.Info().Uint64("messages", dec.Messages()).Msg("packctl framed unpack done")
	return stats, flushOutput(out)
}

func flushOutput(out io.Writer) error {
	if f, ok := out.(interface{ Flush() error }); ok {
		return f.Flush()
	}
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

func (c *countingWriter) Flush() error {
	return flushOutput(c.w)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
