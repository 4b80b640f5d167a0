package valist

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/wippyai/varargs/abi"
	"github.com/wippyai/varargs/charset"
	"github.com/wippyai/varargs/errors"
	"github.com/wippyai/varargs/memory"
	"github.com/wippyai/varargs/vararg"
)

func TestPack_Scalars(t *testing.T) {
	f := newFixture(t, abi.LP64)

	l, err := f.packer.Pack([]*vararg.Arg{vararg.Int32(5), vararg.Int64(9_999_999_999)})
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	defer l.Release()

	if l.Size() != 12 || l.Len() != 2 {
		t.Fatalf("size = %d, len = %d", l.Size(), l.Len())
	}
	if l.Handle() == 0 {
		t.Fatal("expected non-zero handle")
	}

	got, err := l.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	want := make([]byte, 12)
	binary.LittleEndian.PutUint32(want, 5)
	binary.LittleEndian.PutUint64(want[4:], 9_999_999_999)
	if !bytes.Equal(got, want) {
		t.Errorf("bytes = %x, want %x", got, want)
	}
	if f.alloc.allocs != 1 {
		t.Errorf("allocs = %d, want 1", f.alloc.allocs)
	}
}

func TestPack_String(t *testing.T) {
	f := newFixture(t, abi.LP64)

	l, err := f.packer.Pack([]*vararg.Arg{vararg.String("hi")})
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}

	if l.Size() != 8 {
		t.Fatalf("size = %d, want 8", l.Size())
	}
	raw, _ := l.Bytes()
	ptr := binary.LittleEndian.Uint64(raw)
	text, err := f.arena.Read(ptr, 3)
	if err != nil {
		t.Fatalf("dereference 0x%x: %v", ptr, err)
	}
	if string(text) != "hi\x00" {
		t.Errorf("text = %q", text)
	}
	if f.alloc.allocs != 2 {
		t.Errorf("allocs = %d, want buffer + text", f.alloc.allocs)
	}

	l.Release()
	if f.alloc.frees != 2 {
		t.Errorf("frees = %d, want 2", f.alloc.frees)
	}
	f.assertClean(t)
}

func TestPack_Empty(t *testing.T) {
	f := newFixture(t, abi.LP64)

	l, err := f.packer.Pack([]*vararg.Arg{})
	if err != nil {
		t.Fatalf("Pack failed: %v", err)
	}
	if l.Handle() != 0 || l.Size() != 0 || l.Len() != 0 {
		t.Errorf("handle = 0x%x, size = %d, len = %d", l.Handle(), l.Size(), l.Len())
	}
	if b, err := l.Bytes(); err != nil || len(b) != 0 {
		t.Errorf("Bytes = %x, %v", b, err)
	}
	if vals, err := l.Decode(); err != nil || len(vals) != 0 {
		t.Errorf("Decode = %v, %v", vals, err)
	}

	l.Release()
	l.Release()
	if f.alloc.allocs != 0 || f.alloc.frees != 0 {
		t.Errorf("allocs = %d, frees = %d", f.alloc.allocs, f.alloc.frees)
	}
}

func TestPack_NilSequence(t *testing.T) {
	f := newFixture(t, abi.LP64)

	_, err := f.packer.Pack(nil)
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Fatalf("err = %v, want invalid_input", err)
	}
	if f.alloc.allocs != 0 {
		t.Errorf("allocs = %d, want 0", f.alloc.allocs)
	}
}

func TestPack_NilElement(t *testing.T) {
	f := newFixture(t, abi.LP64)

	s := vararg.String("kept")
	_, err := f.packer.Pack([]*vararg.Arg{s, nil})
	if !errors.IsKind(err, errors.KindInvalidInput) {
		t.Fatalf("err = %v", err)
	}
	if !s.Released() {
		t.Error("expected argument to be released")
	}
	if f.alloc.allocs != 0 {
		t.Errorf("allocs = %d, want 0", f.alloc.allocs)
	}
}

func TestPack_ReleasedElement(t *testing.T) {
	f := newFixture(t, abi.LP64)

	dead := vararg.Int32(1)
	dead.Release()
	_, err := f.packer.Pack([]*vararg.Arg{vararg.Int32(2), dead})
	if !errors.IsKind(err, errors.KindInvalidState) {
		t.Fatalf("err = %v", err)
	}
	if f.alloc.allocs != 0 {
		t.Errorf("allocs = %d", f.alloc.allocs)
	}
}

func TestRelease_Idempotent(t *testing.T) {
	f := newFixture(t, abi.LP64)

	l, err := f.packer.PackValues(int32(1), "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	args := l.Args()

	l.Release()
	l.Release()

	if f.alloc.frees != 3 {
		t.Errorf("frees = %d, want 3", f.alloc.frees)
	}
	if l.Handle() != 0 || !l.Released() {
		t.Errorf("handle = 0x%x, released = %v", l.Handle(), l.Released())
	}
	for i, a := range args {
		if !a.Released() {
			t.Errorf("arg %d not released", i)
		}
	}
	if _, err := l.Bytes(); !errors.IsKind(err, errors.KindInvalidState) {
		t.Errorf("Bytes after release err = %v", err)
	}
	if _, err := l.Decode(); !errors.IsKind(err, errors.KindInvalidState) {
		t.Errorf("Decode after release err = %v", err)
	}
	f.assertClean(t)

	var nilList *List
	nilList.Release()
}

func TestRelease_PoisonsText(t *testing.T) {
	f := newFixture(t, abi.LP64)

	l, err := f.packer.PackValues("gone")
	if err != nil {
		t.Fatal(err)
	}
	ptr, size := l.Args()[0].Secondary()
	l.Release()

	text, _ := f.arena.Read(ptr, size)
	for _, c := range text {
		if c != memory.Poison {
			t.Fatalf("freed text = %x", text)
		}
	}
}

func TestPack_SecondaryAllocationFails(t *testing.T) {
	f := newFixture(t, abi.LP64)
	f.alloc.failAt = 3 // buffer, "a", then "b"

	args := []*vararg.Arg{vararg.Int32(1), vararg.String("a"), vararg.String("b")}
	_, err := f.packer.Pack(args)
	if !errors.IsKind(err, errors.KindAllocation) {
		t.Fatalf("err = %v, want allocation", err)
	}
	if f.alloc.frees != 2 {
		t.Errorf("frees = %d, want 2", f.alloc.frees)
	}
	for i, a := range args {
		if !a.Released() {
			t.Errorf("arg %d not released", i)
		}
	}
	f.assertClean(t)

	var se *errors.Error
	if e, ok := err.(*errors.Error); ok {
		se = e
	}
	if se == nil || len(se.Path) == 0 || se.Path[0] != "2" {
		t.Errorf("error path = %v", err)
	}
}

func TestPack_BufferAllocationFails(t *testing.T) {
	f := newFixture(t, abi.LP64)
	f.alloc.failAt = 1

	s := vararg.String("x")
	_, err := f.packer.Pack([]*vararg.Arg{s})
	if !errors.IsKind(err, errors.KindAllocation) {
		t.Fatalf("err = %v", err)
	}
	if !s.Released() {
		t.Error("argument not released")
	}
	if f.alloc.frees != 0 {
		t.Errorf("frees = %d, want 0", f.alloc.frees)
	}
}

func TestPack_WriteFails(t *testing.T) {
	arena, err := memory.NewArena(arenaBase, 4096)
	if err != nil {
		t.Fatal(err)
	}
	// Writes: slot 0, text of slot 1, slot 1.
	mem := &failingMemory{Memory: arena, failAt: 2}
	alloc := &countingAlloc{Allocator: arena}
	p, err := NewPacker(Config{Platform: abi.LP64, Memory: mem, Allocator: alloc})
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.PackValues(int32(1), "text")
	if !errors.IsKind(err, errors.KindOutOfBounds) {
		t.Fatalf("err = %v", err)
	}
	if alloc.allocs != 2 || alloc.frees != 2 {
		t.Errorf("allocs = %d, frees = %d", alloc.allocs, alloc.frees)
	}
	if st := arena.Stats(); st.Live != 0 {
		t.Errorf("live = %d", st.Live)
	}
}

func TestPack_OrderAndOffsets(t *testing.T) {
	f := newFixture(t, abi.LP64)

	l, err := f.packer.PackValues(int32(1), "s", int64(2), 3.5, int32(4))
	if err != nil {
		t.Fatal(err)
	}
	defer l.Release()

	want := []Slot{
		{Index: 0, Offset: 0, Size: 4, Kind: vararg.KindInt32},
		{Index: 1, Offset: 4, Size: 8, Kind: vararg.KindString},
		{Index: 2, Offset: 12, Size: 8, Kind: vararg.KindInt64},
		{Index: 3, Offset: 20, Size: 8, Kind: vararg.KindDouble},
		{Index: 4, Offset: 28, Size: 4, Kind: vararg.KindInt32},
	}
	got := l.Slots()
	if len(got) != len(want) {
		t.Fatalf("slots = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slot %d = %+v, want %+v", i, got[i], want[i])
		}
	}
	if l.Size() != 32 {
		t.Errorf("size = %d, want 32", l.Size())
	}
	if l.Align() != 8 {
		t.Errorf("align = %d, want 8", l.Align())
	}
}

func TestPack_AlignFollowsWidestSlot(t *testing.T) {
	f := newFixture(t, abi.ILP32)

	l, err := f.packer.PackValues(int32(1), "x")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Release()
	if l.Size() != 8 || l.Align() != 4 {
		t.Errorf("size = %d, align = %d", l.Size(), l.Align())
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	f := newFixture(t, abi.LP64)

	args := []*vararg.Arg{
		vararg.Int32(-7),
		vararg.Int64(math.MinInt64),
		vararg.Double(2.5),
		vararg.Single(1.5),
		vararg.Decimal(decimal.RequireFromString("12.25")),
		vararg.Char('é'),
		vararg.String("héllo"),
	}
	l, err := f.packer.Pack(args)
	if err != nil {
		t.Fatal(err)
	}
	defer l.Release()

	if l.Size() != 4+8+8+4+8+8+8 {
		t.Errorf("size = %d", l.Size())
	}
	vals, err := l.Decode()
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	want := []any{int32(-7), int64(math.MinInt64), 2.5, float32(1.5), 12.25, "é", "héllo"}
	for i := range want {
		if vals[i] != want[i] {
			t.Errorf("value %d = %#v, want %#v", i, vals[i], want[i])
		}
	}
}

func TestDecode_Wide(t *testing.T) {
	arena, err := memory.NewArena(arenaBase, 4096)
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewPacker(Config{
		Platform:  abi.LP64BE,
		Encoding:  charset.UTF16,
		Memory:    arena,
		Allocator: arena,
	})
	if err != nil {
		t.Fatal(err)
	}

	l, err := p.PackValues(int32(5), "日本")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Release()

	raw, _ := l.Bytes()
	if !bytes.Equal(raw[:4], []byte{0, 0, 0, 5}) {
		t.Errorf("big-endian int32 = %x", raw[:4])
	}
	ptr := binary.BigEndian.Uint64(raw[4:])
	text, _ := arena.Read(ptr, 6)
	if !bytes.Equal(text, []byte{0x65, 0xE5, 0x67, 0x2C, 0, 0}) {
		t.Errorf("UTF-16BE text = %x", text)
	}
	if ptr%2 != 0 {
		t.Errorf("wide text at odd address 0x%x", ptr)
	}

	vals, err := l.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if vals[1] != "日本" {
		t.Errorf("decoded = %q", vals[1])
	}
}

func TestPack_ILP32Pointers(t *testing.T) {
	f := newFixture(t, abi.ILP32)

	l, err := f.packer.PackValues(7, "ab")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Release()

	slots := l.Slots()
	if slots[0].Kind != vararg.KindInt32 || slots[0].Size != 4 {
		t.Errorf("int slot = %+v", slots[0])
	}
	if slots[1].Size != 4 {
		t.Errorf("string slot = %+v", slots[1])
	}
	raw, _ := l.Bytes()
	ptr := uint64(binary.LittleEndian.Uint32(raw[4:]))
	text, _ := f.arena.Read(ptr, 3)
	if string(text) != "ab\x00" {
		t.Errorf("text = %q", text)
	}
}

func TestPack_PointerOverflow(t *testing.T) {
	arena, err := memory.NewArena(1<<32, 4096)
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewPacker(Config{Platform: abi.Wasm32, Memory: arena, Allocator: arena})
	if err != nil {
		t.Fatal(err)
	}
	s := vararg.String("x")
	_, err = p.Pack([]*vararg.Arg{s})
	if !errors.IsKind(err, errors.KindOverflow) {
		t.Fatalf("err = %v", err)
	}
	if !s.Released() {
		t.Error("argument not released")
	}
	if st := arena.Stats(); st.Live != 0 {
		t.Errorf("live = %d", st.Live)
	}
}

func TestDecode_IANAWideEncoding(t *testing.T) {
	for _, name := range []string{"UTF-16LE", "UTF-16BE"} {
		t.Run(name, func(t *testing.T) {
			enc, err := charset.Lookup(name)
			if err != nil {
				t.Fatal(err)
			}
			arena, err := memory.NewArena(arenaBase, 4096)
			if err != nil {
				t.Fatal(err)
			}
			p, err := NewPacker(Config{Platform: abi.LP64, Encoding: enc, Memory: arena, Allocator: arena})
			if err != nil {
				t.Fatal(err)
			}

			l, err := p.PackValues("hi")
			if err != nil {
				t.Fatal(err)
			}
			defer l.Release()

			ptr, size := l.Args()[0].Secondary()
			if size != 6 {
				t.Errorf("text size = %d, want 2 units + 2-byte NUL", size)
			}
			text, _ := arena.Read(ptr, size)
			if text[4] != 0 || text[5] != 0 {
				t.Errorf("text = % x", text)
			}
			vals, err := l.Decode()
			if err != nil {
				t.Fatal(err)
			}
			if vals[0] != "hi" {
				t.Errorf("decoded = %q", vals[0])
			}
		})
	}
}
