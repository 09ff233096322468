package server

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/danmuck/packwire/internal/observability"
	"github.com/danmuck/packwire/internal/protocol"
	"github.com/danmuck/packwire/internal/protocol/frame"
	"github.com/danmuck/packwire/internal/protocol/packed"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	HeaderSegmentCount  = "X-Segment-Count"
	HeaderUnpackedBytes = "X-Unpacked-Bytes"

	contentTypeBinary = "application/octet-stream"
)

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.Name,
			"version": "0.1.0",
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":       true,
			"service":     s.Name,
			"buffer_size": s.codec.BufferSize,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.POST("/pack", s.handlePack)
	s.router.POST("/unpack", s.handleUnpack)
	s.router.POST("/messages/pack", s.handlePackMessage)
	s.router.POST("/messages/unpack", s.handleUnpackMessage)
}

func (s *Server) packedOptions() []packed.Option {
	return []packed.Option{
		packed.WithLogger(log.Logger),
		packed.WithObserver(observability.CodecObserver{Node: s.Name}),
	}
}

func (s *Server) body(c *gin.Context) io.Reader {
	return http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBody)
}

func (s *Server) handlePack(c *gin.Context) {
	var out bytes.Buffer
	w, err := packed.NewWriter(&out, s.codec.BufferSize, s.packedOptions()...)
	if err != nil {
		s.fail(c, err)
		return
	}
	_, err = io.Copy(w, s.body(c))
	if closeErr := w.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		s.fail(c, err)
		return
	}
	stats := w.Stats()
	c.Set(observability.CodecResultKey, observability.ResultLabel(nil))
	c.Header(HeaderUnpackedBytes, strconv.FormatInt(stats.UnpackedBytes, 10))
	c.Data(http.StatusOK, contentTypeBinary, out.Bytes())
}

func (s *Server) handleUnpack(c *gin.Context) {
	r, err := packed.NewReader(s.body(c), s.codec.BufferSize, s.packedOptions()...)
	if err != nil {
		s.fail(c, err)
		return
	}
	defer r.Close()

	var out bytes.Buffer
	if _, err := io.Copy(&out, r); err != nil {
		s.fail(c, err)
		return
	}
	c.Set(observability.CodecResultKey, observability.ResultLabel(nil))
	c.Header(HeaderUnpackedBytes, strconv.Itoa(out.Len()))
	c.Data(http.StatusOK, contentTypeBinary, out.Bytes())
}

func (s *Server) handlePackMessage(c *gin.Context) {
	raw, err := io.ReadAll(s.body(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	opts := s.protocolOptions()
	src := bytes.NewReader(raw)
	msg, err := frame.ReadMessage(src, opts.Limits)
	if errors.Is(err, io.EOF) {
		err = frame.ErrTruncated
	}
	if err == nil && src.Len() > 0 {
		err = protocol.ErrTrailingData
	}
	if err != nil {
		s.fail(c, err)
		return
	}

	out, err := protocol.EncodeMessage(msg, opts)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Set(observability.CodecResultKey, observability.ResultLabel(nil))
	c.Header(HeaderSegmentCount, strconv.Itoa(len(msg.Segments)))
	c.Data(http.StatusOK, contentTypeBinary, out)
}

func (s *Server) handleUnpackMessage(c *gin.Context) {
	raw, err := io.ReadAll(s.body(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	opts := s.protocolOptions()
	msg, err := protocol.DecodeMessage(raw, opts)
	if err != nil {
		s.fail(c, err)
		return
	}

	var out bytes.Buffer
	if err := frame.WriteMessage(&out, msg, opts.Limits); err != nil {
		s.fail(c, err)
		return
	}
	c.Set(observability.CodecResultKey, observability.ResultLabel(nil))
	c.Header(HeaderSegmentCount, strconv.Itoa(len(msg.Segments)))
	c.Header(HeaderUnpackedBytes, strconv.Itoa(out.Len()))
	c.Data(http.StatusOK, contentTypeBinary, out.Bytes())
}

func (s *Server) protocolOptions() protocol.Options {
	opts := s.codec.ProtocolOptions()
	logger := log.Logger
	opts.Logger = &logger
	opts.Observer = observability.CodecObserver{Node: s.Name}
	return opts
}

func (s *Server) fail(c *gin.Context, err error) {
	result := observability.ResultLabel(err)
	c.Set(observability.CodecResultKey, result)
	c.JSON(statusFor(err, result), gin.H{"error": err.Error(), "result": result})
}

func statusFor(err error, result string) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case result == "malformed", result == "unaligned", result == "framing":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
