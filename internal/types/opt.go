package types

// Opt is the option wrapper (present/absent); when present it carries an
// inner Value (§3 Value: Opt variant).
type Opt struct {
	present bool
	inner   Value
}

func OptOf(v Value) Opt { return Opt{present: true, inner: v} }
func OptNone() Opt      { return Opt{present: false} }

func (Opt) Kind() Kind { return OptKind }
func (o Opt) Type() Type {
	if !o.present {
		return OptT{Inner: DynType}
	}
	return OptT{Inner: o.inner.Type()}
}

func (o Opt) IsPresent() bool { return o.present }

// Value returns the inner value, or an Error if absent — the unwrap
// contract used by the `|>>`-style "unwrap or panic" access pattern.
func (o Opt) Value() Value {
	if !o.present {
		return NewError(ErrMissing, "optional.None() dereferenced")
	}
	return o.inner
}

func (o Opt) Hash() uint64 {
	if !o.present {
		return 0x4F7074 // "Opt" absent sentinel
	}
	return o.inner.Hash() ^ 0x4F7074
}

// Equal defaults to heterogeneous numeric equality for the wrapped value;
// see Int.Equal. Equality that must honor the caller's actual
// RuntimeOption goes through equalWith.
func (o Opt) Equal(other Value) bool { return o.equalWith(other, true) }

func (o Opt) equalWith(other Value, heterogeneous bool) bool {
	p, ok := other.(Opt)
	if !ok || o.present != p.present {
		return false
	}
	if !o.present {
		return true
	}
	return valueEqual(o.inner, p.inner, heterogeneous)
}

func (o Opt) DebugString() string {
	if !o.present {
		return "optional.none()"
	}
	return "optional.of(" + o.inner.DebugString() + ")"
}
