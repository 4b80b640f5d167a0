package valist

import (
	stderrors "errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/wippyai/varargs"
	"github.com/wippyai/varargs/abi"
	"github.com/wippyai/varargs/charset"
	"github.com/wippyai/varargs/errors"
	"github.com/wippyai/varargs/vararg"
)

// Config describes where lists are packed.
type Config struct {
	// Platform defaults to abi.Host().
	Platform abi.Platform
	// Encoding defaults to charset.UTF8.
	Encoding  charset.Encoding
	Memory    varargs.Memory
	Allocator varargs.Allocator
}

// Packer builds Lists for one target. It holds no mutable state and may be
// shared between goroutines.
type Packer struct {
	target vararg.Target
}

// NewPacker validates cfg and fills defaults.
func NewPacker(cfg Config) (*Packer, error) {
	if cfg.Memory == nil {
		return nil, errors.InvalidInput(errors.PhaseConfig, "packer needs a memory")
	}
	if cfg.Allocator == nil {
		return nil, errors.InvalidInput(errors.PhaseConfig, "packer needs an allocator")
	}
	if cfg.Platform.IsZero() {
		cfg.Platform = abi.Host()
	}
	if err := cfg.Platform.Validate(); err != nil {
		return nil, err
	}
	if cfg.Encoding.IsZero() {
		cfg.Encoding = charset.UTF8
	}
	return &Packer{target: vararg.Target{
		Memory:    cfg.Memory,
		Allocator: cfg.Allocator,
		Encoding:  cfg.Encoding,
		Platform:  cfg.Platform,
	}}, nil
}

// Platform returns the platform lists are packed for.
func (p *Packer) Platform() abi.Platform { return p.target.Platform }

// Encoding returns the text encoding of secondary allocations.
func (p *Packer) Encoding() charset.Encoding { return p.target.Encoding }

// Pack takes ownership of args and writes them into one buffer. On failure
// every argument and the buffer are released before the error is returned.
// A nil slice is rejected before anything is allocated; an empty one yields
// a list with a zero handle.
func (p *Packer) Pack(args []*vararg.Arg) (*List, error) {
	if args == nil {
		return nil, errors.InvalidInput(errors.PhasePack, "nil argument sequence")
	}

	plat := p.target.Platform
	slots := make([]Slot, len(args))
	var total, align uint32
	for i, a := range args {
		if a == nil {
			releaseAll(args)
			return nil, errors.New(errors.PhasePack, errors.KindInvalidInput).
				Path(strconv.Itoa(i)).
				Detail("nil argument").
				Build()
		}
		if a.Released() {
			releaseAll(args)
			return nil, errors.New(errors.PhasePack, errors.KindInvalidState).
				Path(strconv.Itoa(i)).
				Detail("%s argument already released", a.Kind()).
				Build()
		}
		fp := a.Footprint(plat)
		slots[i] = Slot{Index: i, Offset: total, Size: fp, Kind: a.Kind()}

		var err error
		if total, err = extend(total, fp, i); err != nil {
			releaseAll(args)
			return nil, err
		}
		align = max(align, min(fp, abi.MaxSlotAlign))
	}

	l := &List{target: p.target, args: args, slots: slots, size: total, align: align}
	if len(args) == 0 {
		return l, nil
	}

	ptr, err := p.target.Allocator.Alloc(total, align)
	if err != nil || ptr == 0 {
		releaseAll(args)
		return nil, errors.AllocationFailed(errors.PhaseAlloc, total, align, err)
	}
	if !plat.FitsPointer(ptr) {
		p.target.Allocator.Free(ptr, total, align)
		releaseAll(args)
		return nil, errors.Overflow(errors.PhasePack, nil, ptr, plat.String()+" pointer")
	}

	for i, a := range args {
		if err := a.Write(&p.target, ptr+uint64(slots[i].Offset)); err != nil {
			releaseAll(args)
			p.target.Allocator.Free(ptr, total, align)
			return nil, atIndex(err, i)
		}
	}

	l.handle = ptr
	track(l)
	Logger().Debug("packed argument list",
		zap.Uint64("handle", ptr),
		zap.Uint32("size", total),
		zap.Int("args", len(args)),
		zap.Stringer("platform", plat))
	return l, nil
}

// PackValues converts vals with the conversion table and packs them.
func (p *Packer) PackValues(vals ...any) (*List, error) {
	args, err := vararg.FromValues(p.target.Platform, vals...)
	if err != nil {
		return nil, err
	}
	return p.Pack(args)
}

// With packs args, calls fn with the list and releases it on every exit
// path, including a panic in fn. The list must not be retained past fn.
func (p *Packer) With(args []*vararg.Arg, fn func(*List) error) error {
	if fn == nil {
		releaseAll(args)
		return errors.InvalidInput(errors.PhasePack, "nil scope function")
	}
	l, err := p.Pack(args)
	if err != nil {
		return err
	}
	defer l.Release()
	return fn(l)
}

func releaseAll(args []*vararg.Arg) {
	for _, a := range args {
		a.Release()
	}
}

// atIndex prefixes the argument index to a structured error's path.
func atIndex(err error, i int) error {
	var e *errors.Error
	if stderrors.As(err, &e) {
		e.Path = append([]string{strconv.Itoa(i)}, e.Path...)
		return err
	}
	return fmt.Errorf("argument %d: %w", i, err)
}

// extend adds the footprint of argument i to the list size, which may not
// exceed abi.MaxAlloc.
func extend(total, fp uint32, i int) (uint32, error) {
	sum, ok := abi.SafeAddU32(total, fp)
	if !ok || sum > abi.MaxAlloc {
		return total, errors.Overflow(errors.PhasePack, []string{strconv.Itoa(i)},
			uint64(total)+uint64(fp), "argument list size")
	}
	return sum, nil
}
