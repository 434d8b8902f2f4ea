package series

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrInvertedWindow is returned when a window's lower bound is after its
// upper bound. It is a configuration error and is never silently swapped.
var ErrInvertedWindow = errors.New("window start is after window end")

// Span is the time range covered by the whole store.
type Span struct {
	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (s Span) Duration() time.Duration { return s.End.Sub(s.Start) }

// Window is a resolved (From, To) pair used for plot bounds and statistics.
type Window struct {
	From time.Time
	To   time.Time
}

// Empty reports whether the window has zero width.
func (w Window) Empty() bool { return !w.To.After(w.From) }

// Contains reports whether ts lies within [From, To].
func (w Window) Contains(ts time.Time) bool {
	return !ts.Before(w.From) && !ts.After(w.To)
}

func (w Window) String() string {
	return fmt.Sprintf("%s to %s", w.From.Format(time.DateTime), w.To.Format(time.DateTime))
}

type specKind int

const (
	specFraction specKind = iota
	specAbsolute
)

// WindowSpec is an unresolved window: either fractional offsets into the
// span or absolute timestamps. The zero value is the full span.
type WindowSpec struct {
	set        bool
	kind       specKind
	fromF, toF float64
	fromT, toT time.Time
}

// Full is the window covering the whole span.
var Full = Fraction(0, 1)

// Fraction selects the part of the span between two fractional offsets in
// [0, 1].
func Fraction(from, to float64) WindowSpec {
	return WindowSpec{set: true, kind: specFraction, fromF: from, toF: to}
}

// Absolute selects the part of the span between two timestamps.
func Absolute(from, to time.Time) WindowSpec {
	return WindowSpec{set: true, kind: specAbsolute, fromT: from, toT: to}
}

// IsZero reports whether ws is the zero value, which resolves like Full.
func (ws WindowSpec) IsZero() bool {
	return !ws.set
}

// Validate checks the spec without needing any data.
func (ws WindowSpec) Validate() error {
	if ws.IsZero() {
		return nil
	}
	switch ws.kind {
	case specFraction:
		if ws.fromF < 0 || ws.fromF > 1 || ws.toF < 0 || ws.toF > 1 {
			return fmt.Errorf("window fractions must lie in [0,1], got %v..%v", ws.fromF, ws.toF)
		}
		if ws.fromF > ws.toF {
			return fmt.Errorf("%w: %v > %v", ErrInvertedWindow, ws.fromF, ws.toF)
		}
	case specAbsolute:
		if ws.fromT.After(ws.toT) {
			return fmt.Errorf("%w: %s > %s", ErrInvertedWindow,
				ws.fromT.Format(time.DateTime), ws.toT.Format(time.DateTime))
		}
	}
	return nil
}

func (ws WindowSpec) String() string {
	if ws.IsZero() {
		return "full span"
	}
	if ws.kind == specAbsolute {
		return fmt.Sprintf("%s..%s", ws.fromT.Format(time.DateTime), ws.toT.Format(time.DateTime))
	}
	return fmt.Sprintf("%.3g..%.3g", ws.fromF, ws.toF)
}

// Resolve turns spec into a concrete window over the data currently in the
// store.
//
// Fractions are mapped onto a per-second grid spanning the store. Absolute
// bounds are snapped to timestamps actually present: From forwards, To
// backwards, and bounds beyond the data go to the nearest extreme. If
// snapping leaves From after To (the request fell inside a gap) the window
// collapses to zero width at From.
func Resolve(st *Store, spec WindowSpec) (Window, error) {
	if err := spec.Validate(); err != nil {
		return Window{}, err
	}
	sp, ok := st.Span()
	if !ok {
		return Window{}, ErrNoData
	}
	if spec.IsZero() {
		spec = Full
	}

	switch spec.kind {
	case specFraction:
		return Window{From: gridTime(sp, spec.fromF), To: gridTime(sp, spec.toF)}, nil
	default:
		return snap(st.Timestamps(), spec.fromT, spec.toT), nil
	}
}

// gridTime maps f onto the index range of a one-second grid from sp.Start
// to sp.End inclusive.
func gridTime(sp Span, f float64) time.Time {
	n := int(sp.Duration()/time.Second) + 1
	idx := int(f * float64(n-1))
	return sp.Start.Add(time.Duration(idx) * time.Second)
}

func snap(ts []time.Time, from, to time.Time) Window {
	last := len(ts) - 1

	// First timestamp >= from.
	i := sort.Search(len(ts), func(i int) bool { return !ts[i].Before(from) })
	if i > last {
		i = last
	}
	// Last timestamp <= to.
	j := sort.Search(len(ts), func(i int) bool { return ts[i].After(to) }) - 1
	if j < 0 {
		j = 0
	}

	w := Window{From: ts[i], To: ts[j]}
	if w.From.After(w.To) {
		w.To = w.From
	}
	return w
}
