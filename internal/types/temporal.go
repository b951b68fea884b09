package types

import (
	"time"
)

// maxDurationNanos is the ±10,000-year Duration bound of spec §3 as a
// float64 nanosecond count; the constant is typed float64 (through
// float64(time.Hour)) because 365.2425 does not fit an int64 product.
const maxDurationNanos = 10000.0 * 365.2425 * 24 * float64(time.Hour)

var minTimestamp = time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
var maxTimestamp = time.Date(9999, 12, 31, 23, 59, 59, 999999999, time.UTC)

// Duration is a signed nanosecond count.
type Duration struct{ Nanos int64 }

func (Duration) Kind() Kind { return DurationKind }
func (Duration) Type() Type { return DurationType }
func (d Duration) Hash() uint64 {
	return hashNumeric(float64(d.Nanos))
}
func (d Duration) Equal(other Value) bool {
	o, ok := other.(Duration)
	return ok && d.Nanos == o.Nanos
}
func (d Duration) DebugString() string {
	return time.Duration(d.Nanos).String()
}

// Timestamp is signed nanoseconds since the Unix epoch.
type Timestamp struct{ Nanos int64 }

func (Timestamp) Kind() Kind { return TimestampKind }
func (Timestamp) Type() Type { return TimestampType }
func (t Timestamp) Hash() uint64 {
	return hashNumeric(float64(t.Nanos))
}
func (t Timestamp) Equal(other Value) bool {
	o, ok := other.(Timestamp)
	return ok && t.Nanos == o.Nanos
}
func (t Timestamp) Time() time.Time {
	return time.Unix(0, t.Nanos).UTC()
}
func (t Timestamp) DebugString() string {
	return t.Time().Format(time.RFC3339Nano)
}

// ParseTimestamp parses an RFC3339 timestamp string, the source format for
// the CEL timestamp() conversion function.
func ParseTimestamp(s string) Value {
	tm, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return NewError(ErrInvalidArgument, "invalid timestamp %q: %v", s, err)
	}
	if tm.Before(minTimestamp) || tm.After(maxTimestamp) {
		return NewError(ErrOverflow, "timestamp %q out of representable range", s)
	}
	return Timestamp{Nanos: tm.UnixNano()}
}

// ParseDuration parses a Go-style duration string ("24h", "1000000h"), the
// source format for the CEL duration() conversion function.
func ParseDuration(s string) Value {
	d, err := time.ParseDuration(s)
	if err != nil {
		return NewError(ErrInvalidArgument, "invalid duration %q: %v", s, err)
	}
	if float64(d) > maxDurationNanos || float64(d) < -maxDurationNanos {
		return NewError(ErrOverflow, "duration %q exceeds ±10,000 years", s)
	}
	return Duration{Nanos: int64(d)}
}

// AddTimestampDuration implements Timestamp + Duration, overflowing to
// Error outside the representable range rather than saturating (§4.1
// Temporal semantics).
func AddTimestampDuration(t Timestamp, d Duration) Value {
	sum := t.Time().Add(time.Duration(d.Nanos))
	if sum.Before(minTimestamp) || sum.After(maxTimestamp) {
		return NewError(ErrOverflow, "timestamp + duration overflows representable range")
	}
	return Timestamp{Nanos: sum.UnixNano()}
}

// SubTimestampDuration implements Timestamp - Duration.
func SubTimestampDuration(t Timestamp, d Duration) Value {
	return AddTimestampDuration(t, Duration{Nanos: -d.Nanos})
}

// SubTimestamps implements Timestamp - Timestamp -> Duration.
func SubTimestamps(a, b Timestamp) Value {
	diff := a.Nanos - b.Nanos
	if (b.Nanos < 0 && diff < a.Nanos) || (b.Nanos > 0 && diff > a.Nanos) {
		return NewError(ErrOverflow, "timestamp difference overflows duration range")
	}
	return Duration{Nanos: diff}
}

// AddDurations implements Duration + Duration.
func AddDurations(a, b Duration) Value {
	sum := a.Nanos + b.Nanos
	if (b.Nanos > 0 && sum < a.Nanos) || (b.Nanos < 0 && sum > a.Nanos) {
		return NewError(ErrOverflow, "duration + duration overflows")
	}
	if float64(sum) > maxDurationNanos || float64(sum) < -maxDurationNanos {
		return NewError(ErrOverflow, "duration sum exceeds ±10,000 years")
	}
	return Duration{Nanos: sum}
}

// TimestampComponent extracts a calendar/clock component, with an optional
// IANA zone; an unparseable zone yields Error (§4.1 Temporal semantics).
func TimestampComponent(t Timestamp, component string, zone string) Value {
	loc := time.UTC
	if zone != "" {
		l, err := time.LoadLocation(zone)
		if err != nil {
			return NewError(ErrInvalidArgument, "unknown time zone %q: %v", zone, err)
		}
		loc = l
	}
	tm := t.Time().In(loc)
	switch component {
	case "getFullYear":
		return Int(tm.Year())
	case "getMonth":
		return Int(int(tm.Month()) - 1)
	case "getDayOfMonth":
		return Int(tm.Day() - 1)
	case "getDate":
		return Int(tm.Day())
	case "getDayOfWeek":
		return Int(int(tm.Weekday()))
	case "getHours":
		return Int(tm.Hour())
	case "getMinutes":
		return Int(tm.Minute())
	case "getSeconds":
		return Int(tm.Second())
	case "getMilliseconds":
		return Int(tm.Nanosecond() / 1e6)
	default:
		return NewError(ErrNoSuchOverload, "unknown timestamp component %q", component)
	}
}
