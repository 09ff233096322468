package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/packwire/internal/config"
	"github.com/danmuck/packwire/internal/logging"
	"github.com/danmuck/packwire/internal/observability"
	"github.com/danmuck/packwire/internal/server"
	"github.com/rs/zerolog"
)

type options struct {
	mode       string
	in         string
	out        string
	configPath string
	framed     bool
	framedSet  bool
}

func main() {
	opts := parseFlags()
	logging.ConfigureRuntime()
	logger := observability.InitLogger("packctl")

	cfg := config.DefaultPackctlConfig()
	if opts.configPath != "" {
		loaded, err := config.LoadPackctlConfig(opts.configPath)
		if err != nil {
			fatalf("%v", err)
		}
		cfg = loaded
	}
	if opts.framedSet {
		cfg.Framed = opts.framed
	}

	switch opts.mode {
	case "pack", "unpack":
		if err := runCodec(opts, cfg, logger); err != nil {
			fatalf("%s: %v", opts.mode, err)
		}
	case "serve":
		if err := runServe(cfg); err != nil {
			fatalf("serve: %v", err)
		}
	default:
		fatalf("unknown mode %q (supported: pack, unpack, serve)", opts.mode)
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.mode, "mode", "pack", "pack|unpack|serve")
	flag.StringVar(&opts.in, "in", "-", "input path (- for stdin)")
	flag.StringVar(&opts.out, "out", "-", "output path (- for stdout)")
	flag.StringVar(&opts.configPath, "config", "", "packctl config path (toml)")
	flag.BoolVar(&opts.framed, "framed", false, "treat unpacked data as segment-framed messages")
	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "framed" {
			opts.framedSet = true
		}
	})
	return opts
}

func runCodec(opts options, cfg config.PackctlConfig, logger zerolog.Logger) error {
	in, closeIn, err := openInput(opts.in)
	if err != nil {
		return err
	}
	defer closeIn()

	out, closeOut, err := openOutput(opts.out)
	if err != nil {
		return err
	}
	sink := bufio.NewWriter(out)

	run := runPack
	if opts.mode == "unpack" {
		run = runUnpack
	}
	stats, err := run(bufio.NewReader(in), sink, cfg, logger)
	if flushErr := sink.Flush(); err == nil {
		err = flushErr
	}
	if closeErr := closeOut(); err == nil {
		err = closeErr
	}
	logger.Info().
		Str("mode", opts.mode).
		Bool("framed", cfg.Framed).
		Int64("packed_bytes", stats.PackedBytes).
		Int64("unpacked_bytes", stats.UnpackedBytes).
		Err(err).
		Msg("packctl done")
	return err
}

func runServe(cfg config.PackctlConfig) error {
	serverCfg := config.DefaultServerConfig()
	if cfg.ServerConfig != "" {
		loaded, err := config.LoadServerConfig(cfg.ServerConfig)
		if err != nil {
			return err
		}
		serverCfg = loaded
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.New(serverCfg).Run(ctx)
}

func openInput(path string) (io.Reader, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdin, func() error { return nil }, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func openOutput(path string) (io.Writer, func() error, error) {
	if path == "" || path == "-" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "packctl: "+format+"\n", args...)
	os.Exit(1)
}
