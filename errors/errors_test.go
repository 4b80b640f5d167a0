package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseConvert,
				Kind:   KindInvalidInput,
				Path:   []string{"args", "2"},
				GoType: "uint8",
				Detail: "no variadic conversion",
			},
			contains: []string{"convert invalid_input at args.2", ": no variadic conversion", "(Go uint8)"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseDecode,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"decode out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseAlloc,
				Kind:   KindAllocation,
				Detail: "heap exhausted",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"alloc allocation: heap exhausted: underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseWrite,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should walk to the cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseWrite,
		Kind:  KindInvalidState,
		Path:  []string{"0"},
	}

	if !err.Is(&Error{Phase: PhaseWrite, Kind: KindInvalidState}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhasePack, Kind: KindInvalidState}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseWrite, Kind: KindAllocation}) {
		t.Error("Is should not match different kind")
	}
	if !errors.Is(fmt.Errorf("wrapped: %w", err), &Error{Phase: PhaseWrite, Kind: KindInvalidState}) {
		t.Error("errors.Is should match through fmt wrapping")
	}
}

func TestIsKind(t *testing.T) {
	inner := InvalidState(PhaseWrite, "argument released")
	outer := Wrap(PhasePack, KindInvalidData, inner, "slot 3")

	if !IsKind(outer, KindInvalidData) {
		t.Error("IsKind should match the outer kind")
	}
	if !IsKind(outer, KindInvalidState) {
		t.Error("IsKind should match a wrapped kind")
	}
	if IsKind(outer, KindOverflow) {
		t.Error("IsKind matched an absent kind")
	}
	if IsKind(errors.New("plain"), KindInvalidInput) {
		t.Error("IsKind matched a plain error")
	}
	if IsKind(nil, KindInvalidInput) {
		t.Error("IsKind matched nil")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseConvert, KindOverflow).
		Path("args", "1").
		GoType("int").
		Value(1 << 40).
		Cause(cause).
		Detail("does not fit %d bytes", 4).
		Build()

	if err.Phase != PhaseConvert {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseConvert)
	}
	if err.Kind != KindOverflow {
		t.Errorf("Kind = %v, want %v", err.Kind, KindOverflow)
	}
	if len(err.Path) != 2 || err.Path[0] != "args" || err.Path[1] != "1" {
		t.Errorf("Path = %v, want [args 1]", err.Path)
	}
	if err.GoType != "int" {
		t.Errorf("GoType = %v, want 'int'", err.GoType)
	}
	if err.Value != 1<<40 {
		t.Errorf("Value = %v, want %d", err.Value, 1<<40)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "does not fit 4 bytes" {
		t.Errorf("Detail = %q", err.Detail)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("UnsupportedType", func(t *testing.T) {
		err := UnsupportedType(PhaseConvert, []string{"3"}, "bool")
		if err.Kind != KindInvalidInput || err.GoType != "bool" {
			t.Errorf("got kind=%v goType=%v", err.Kind, err.GoType)
		}
	})

	t.Run("AllocationFailed", func(t *testing.T) {
		err := AllocationFailed(PhaseAlloc, 1024, 8, nil)
		if err.Kind != KindAllocation {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocation)
		}
		if !strings.Contains(err.Detail, "1024") {
			t.Errorf("Detail = %v, should contain size", err.Detail)
		}
	})

	t.Run("Overflow", func(t *testing.T) {
		err := Overflow(PhasePack, nil, uint64(1<<33), "u32 total")
		if err.Kind != KindOverflow || err.Value != uint64(1<<33) {
			t.Errorf("got kind=%v value=%v", err.Kind, err.Value)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseDecode, 0x1000, 8)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if !strings.Contains(err.Detail, "0x1000") {
			t.Errorf("Detail = %q, should contain address", err.Detail)
		}
	})

	t.Run("InvalidUTF8", func(t *testing.T) {
		err := InvalidUTF8(PhaseWrite, nil, make([]byte, 64))
		if err.Kind != KindInvalidUTF8 {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidUTF8)
		}
		if len(err.Detail) > 100 {
			t.Errorf("preview not truncated: %q", err.Detail)
		}
		if want := "invalid UTF-8 in " + strings.Repeat("00", 32); err.Detail != want {
			t.Errorf("Detail = %q, want %q", err.Detail, want)
		}
		short := InvalidUTF8(PhaseWrite, nil, []byte{0xff, 0xfe})
		if short.Detail != "invalid UTF-8 in fffe" {
			t.Errorf("Detail = %q", short.Detail)
		}
	})

	t.Run("InvalidState", func(t *testing.T) {
		err := InvalidState(PhaseWrite, "released")
		if err.Kind != KindInvalidState {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidState)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseConfig, "pointer width 2")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
		}
		if err.Error() != "config unsupported: pointer width 2 is not supported" {
			t.Errorf("Error() = %q", err.Error())
		}
	})

	t.Run("Detail without args keeps percent signs", func(t *testing.T) {
		err := InvalidInput(PhasePack, "100% full")
		if err.Detail != "100% full" {
			t.Errorf("Detail = %q", err.Detail)
		}
	})
}
