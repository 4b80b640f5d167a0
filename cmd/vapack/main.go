// Command vapack packs typed literals into a C variadic argument list and
// prints the resulting layout.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/varargs/abi"
	"github.com/wippyai/varargs/charset"
	"github.com/wippyai/varargs/heap"
	"github.com/wippyai/varargs/valist"
)

func main() {
	var (
		platform    = flag.String("platform", "", "Target platform (host, lp64, lp64be, ilp32, wasm32)")
		encoding    = flag.String("encoding", "", "String encoding (utf-8, utf-16, utf-32, wide, or an IANA name)")
		backendName = flag.String("backend", "", "Memory backend (arena, wasm, wasm-malloc, wasm-realloc, native)")
		configFile  = flag.String("config", "", "YAML profile")
		format      = flag.String("format", "", "Output format (table, json)")
		verbose     = flag.Bool("v", false, "Log packing to stderr")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: vapack [flags] type:value...")
		fmt.Fprintln(os.Stderr, "       types: "+typeNames())
		fmt.Fprintln(os.Stderr, "       vapack -i  (interactive mode)")
		flag.PrintDefaults()
	}
	flag.Parse()

	p := defaultProfile()
	if *configFile != "" {
		var err error
		if p, err = loadProfile(*configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	overlay(&p, *platform, *encoding, *backendName, *format)
	if flag.NArg() > 0 {
		p.Values = flag.Args()
	}
	if err := p.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		logger, err := zap.NewDevelopment()
		if err == nil {
			valist.SetLogger(logger)
			heap.SetLogger(logger)
			defer func() { _ = logger.Sync() }()
		}
	}

	if *interactive {
		if err := runInteractive(p); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if len(p.Values) == 0 {
		flag.Usage()
		os.Exit(1)
	}
	styled := term.IsTerminal(int(os.Stdout.Fd()))
	if err := run(context.Background(), os.Stdout, p, styled); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// overlay applies non-empty flag values over the profile.
func overlay(p *profile, platform, encoding, backend, format string) {
	if platform != "" {
		p.Platform = platform
	}
	if encoding != "" {
		p.Encoding = encoding
	}
	if backend != "" {
		p.Backend = backend
	}
	if format != "" {
		p.Format = format
	}
}

// session is an open backend plus the packer configured over it.
type session struct {
	backend *backend
	packer  *valist.Packer
}

func openSession(ctx context.Context, p profile) (*session, error) {
	plat, err := abi.Lookup(p.Platform)
	if err != nil {
		return nil, err
	}
	enc, err := charset.Lookup(p.Encoding)
	if err != nil {
		return nil, err
	}
	b, err := openBackend(ctx, p)
	if err != nil {
		return nil, err
	}
	if !b.platform.IsZero() {
		if p.Platform == "host" || p.Platform == "" {
			plat = b.platform
		} else if plat.PointerSize != b.platform.PointerSize {
			return nil, multierr.Append(
				fmt.Errorf("%s backend needs %d-byte pointers, platform %s has %d",
					b.name, b.platform.PointerSize, plat, plat.PointerSize),
				b.Close())
		}
	}
	packer, err := valist.NewPacker(valist.Config{
		Platform:  plat,
		Encoding:  enc,
		Memory:    b.mem,
		Allocator: b.alloc,
	})
	if err != nil {
		return nil, multierr.Append(err, b.Close())
	}
	return &session{backend: b, packer: packer}, nil
}

func (s *session) Close() error { return s.backend.Close() }

// pack packs the literals and snapshots the layout. The list is released
// before the heap counters are read, so a clean run reports no live blocks.
func (s *session) pack(lits []literal) (*report, error) {
	vals, err := literalValues(lits)
	if err != nil {
		return nil, err
	}
	l, err := s.packer.PackValues(vals...)
	if err != nil {
		return nil, err
	}
	r, err := buildReport(l, s.backend.name, s.packer.Platform().String(), s.packer.Encoding().Name())
	l.Release()
	if err != nil {
		return nil, err
	}
	if s.backend.stats != nil {
		r.Heap = s.backend.stats()
	}
	return r, nil
}

func run(ctx context.Context, w io.Writer, p profile, styled bool) (err error) {
	s, err := openSession(ctx, p)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, s.Close()) }()

	r, err := s.pack(parseLiterals(p.Values))
	if err != nil {
		return err
	}
	if p.Format == "json" {
		return renderJSON(w, r)
	}
	return renderTable(w, r, styled)
}
