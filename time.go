package keyward

import (
	"encoding/json"
	"time"

	"github.com/keyward/keyward/errors"
)

// UnixTime represents a point in time as POSIX time.
// Instead of using Go's time.Time that includes nanoseconds use primitive
// int64 type and seconds precision. Block time is the only source of "now".
type UnixTime int64

// Time returns a time.Time structure that represents the same moment in time.
func (t UnixTime) Time() time.Time {
	return time.Unix(int64(t), 0)
}

// IsZero returns true if this time represents a zero value.
func (t UnixTime) IsZero() bool {
	return t == 0
}

// Add modifies this UNIX time by given duration. This is compatible with
// time.Time.Add method.
func (t UnixTime) Add(d time.Duration) UnixTime {
	return t + UnixTime(d/time.Second)
}

// AddDuration moves this time by given unix duration.
func (t UnixTime) AddDuration(d UnixDuration) UnixTime {
	return t + UnixTime(d)
}

// AsUnixTime converts given Time structure into its UNIX time representation.
func AsUnixTime(t time.Time) UnixTime {
	return UnixTime(t.Unix())
}

// UnmarshalJSON supports unmarshaling both as time.Time and from a number.
// Usually a number is used as a representation of this time in JSON but it is
// convinient to use a string format in configurations (ie genesis file).
func (t *UnixTime) UnmarshalJSON(raw []byte) error {
	var unix int64
	if err := json.Unmarshal(raw, &unix); err == nil {
		if unix < 0 {
			return errors.Wrap(errors.ErrInput, "time before epoch")
		}
		*t = UnixTime(unix)
		return nil
	}

	var stdtime time.Time
	if err := json.Unmarshal(raw, &stdtime); err == nil {
		unix := UnixTime(stdtime.Unix())
		if unix < 0 {
			return errors.Wrap(errors.ErrInput, "time before epoch")
		}
		*t = unix
		return nil
	}

	return errors.Wrap(errors.ErrInput, "invalid time format")
}

// Validate returns an error if this time value is invalid.
func (t UnixTime) Validate() error {
	if t < 0 {
		return errors.Wrap(errors.ErrState, "negative value")
	}
	return nil
}

// String returns the usual string representation of this time as the time.Time
// structure would.
func (t UnixTime) String() string {
	return t.Time().UTC().String()
}

// UnixDuration represents a time duration with granularity of a second.
type UnixDuration int64

// AsUnixDuration converts given Duration into UnixDuration. Because of the
// UnixDuration granularity precision of the value is narrowed to seconds.
func AsUnixDuration(d time.Duration) UnixDuration {
	return UnixDuration(d / time.Second)
}

// Duration returns the time.Duration representation of this value.
func (d UnixDuration) Duration() time.Duration {
	return time.Duration(d) * time.Second
}

// Validate returns an error if this duration is negative.
func (d UnixDuration) Validate() error {
	if d < 0 {
		return errors.Wrap(errors.ErrState, "negative duration")
	}
	return nil
}

func (d UnixDuration) String() string {
	return d.Duration().String()
}

// UnmarshalJSON loads JSON serialized representation into this value. JSON
// serialized value can be represented as both number of seconds and a
// human readable string with time unit as used by the time package (ie
// "168h").
func (d *UnixDuration) UnmarshalJSON(raw []byte) error {
	var secs int64
	if err := json.Unmarshal(raw, &secs); err == nil {
		*d = UnixDuration(secs)
		return nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return errors.Wrap(errors.ErrInput, "invalid duration format")
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "invalid duration string: %s", err)
	}
	*d = AsUnixDuration(dur)
	return nil
}

// MarshalJSON returns the human readable form of the duration.
func (d UnixDuration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration().String())
}
