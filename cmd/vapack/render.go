package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	jsoniter "github.com/json-iterator/go"

	"github.com/wippyai/varargs/heap"
	"github.com/wippyai/varargs/valist"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	hexStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

type report struct {
	Platform string     `json:"platform"`
	Encoding string     `json:"encoding"`
	Backend  string     `json:"backend"`
	Handle   string     `json:"handle"`
	Slots    []slotView `json:"slots"`
	Heap     heap.Stats `json:"heap"`
	Size     uint32     `json:"size"`
	Align    uint32     `json:"align"`
}

type slotView struct {
	Value   any    `json:"value"`
	Kind    string `json:"kind"`
	Hex     string `json:"hex"`
	Pointer string `json:"pointer,omitempty"`
	Index   int    `json:"index"`
	Offset  uint32 `json:"offset"`
	Size    uint32 `json:"size"`
}

// buildReport snapshots a live list. It must run before the list is released.
func buildReport(l *valist.List, backendName, platform, encoding string) (*report, error) {
	raw, err := l.Bytes()
	if err != nil {
		return nil, err
	}
	vals, err := l.Decode()
	if err != nil {
		return nil, err
	}
	r := &report{
		Platform: platform,
		Encoding: encoding,
		Backend:  backendName,
		Handle:   addr(l.Handle()),
		Size:     l.Size(),
		Align:    l.Align(),
	}
	args := l.Args()
	for i, s := range l.Slots() {
		v := slotView{
			Index:  s.Index,
			Offset: s.Offset,
			Size:   s.Size,
			Kind:   s.Kind.String(),
			Hex:    hex.EncodeToString(raw[s.Offset : s.Offset+s.Size]),
			Value:  vals[i],
		}
		if s.Kind.IsText() {
			ptr, _ := args[i].Secondary()
			v.Pointer = addr(ptr)
		}
		r.Slots = append(r.Slots, v)
	}
	return r, nil
}

func addr(p uint64) string { return "0x" + strconv.FormatUint(p, 16) }

func renderJSON(w io.Writer, r *report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

// renderTable writes one row per slot. styled enables lipgloss colors.
func renderTable(w io.Writer, r *report, styled bool) error {
	paint := func(s lipgloss.Style, text string) string {
		if !styled {
			return text
		}
		return s.Render(text)
	}

	var b strings.Builder
	title := fmt.Sprintf("%s %s %s", r.Platform, r.Encoding, r.Backend)
	b.WriteString(paint(headerStyle, title))
	fmt.Fprintf(&b, "\nhandle %s  size %d  align %d\n\n", r.Handle, r.Size, r.Align)

	fmt.Fprintf(&b, "%-3s %-6s %-4s %-8s %-18s %s\n", "#", "offset", "size", "kind", "bytes", "value")
	for _, s := range r.Slots {
		value := fmt.Sprintf("%v", s.Value)
		if str, ok := s.Value.(string); ok {
			value = strconv.Quote(str) + " @ " + s.Pointer
		}
		fmt.Fprintf(&b, "%-3d %-6d %-4d %s %s %s\n",
			s.Index, s.Offset, s.Size,
			paint(kindStyle, fmt.Sprintf("%-8s", s.Kind)),
			paint(hexStyle, fmt.Sprintf("%-18s", s.Hex)),
			paint(valueStyle, value))
	}
	if len(r.Slots) == 0 {
		b.WriteString("(empty list)\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}
