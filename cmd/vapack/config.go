package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/wippyai/varargs/abi"
	"github.com/wippyai/varargs/charset"
)

// profile is the optional YAML file named by -config. Flags given on the
// command line override it.
type profile struct {
	Platform  string   `yaml:"platform"`
	Encoding  string   `yaml:"encoding"`
	Backend   string   `yaml:"backend"`
	Format    string   `yaml:"format"`
	Arena     arenaCfg `yaml:"arena"`
	WasmPages uint8    `yaml:"wasm_pages"`
	Values    []string `yaml:"values"`
}

type arenaCfg struct {
	Base uint64 `yaml:"base"`
	Size uint32 `yaml:"size"`
}

const (
	defaultArenaBase = 0x10000
	defaultArenaSize = 1 << 20
	defaultWasmPages = 1
)

func defaultProfile() profile {
	return profile{
		Platform:  "host",
		Encoding:  "utf-8",
		Backend:   "arena",
		Format:    "table",
		Arena:     arenaCfg{Base: defaultArenaBase, Size: defaultArenaSize},
		WasmPages: defaultWasmPages,
	}
}

func loadProfile(path string) (profile, error) {
	f, err := os.Open(path)
	if err != nil {
		return profile{}, fmt.Errorf("open profile: %w", err)
	}
	defer f.Close()
	return parseProfile(f)
}

func parseProfile(r io.Reader) (profile, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return profile{}, fmt.Errorf("read profile: %w", err)
	}
	p := defaultProfile()
	if len(bytes.TrimSpace(data)) == 0 {
		return p, nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return profile{}, fmt.Errorf("parse profile: %w", err)
	}
	return p, p.validate()
}

func (p profile) validate() error {
	if _, err := abi.Lookup(p.Platform); err != nil {
		return err
	}
	if _, err := charset.Lookup(p.Encoding); err != nil {
		return err
	}
	switch p.Backend {
	case "arena", "wasm", "wasm-malloc", "wasm-realloc", "native":
	default:
		return fmt.Errorf("unknown backend %q (want arena, wasm, wasm-malloc, wasm-realloc or native)", p.Backend)
	}
	switch p.Format {
	case "table", "json":
	default:
		return fmt.Errorf("unknown format %q (want table or json)", p.Format)
	}
	if p.Arena.Base == 0 || p.Arena.Size == 0 {
		return fmt.Errorf("arena base and size must be non-zero")
	}
	if p.WasmPages == 0 || p.WasmPages > 127 {
		return fmt.Errorf("wasm_pages must be 1 to 127, got %d", p.WasmPages)
	}
	return nil
}
