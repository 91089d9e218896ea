// Package features is the shared toggle surface between configuration and
// presentation. Writers replace the whole map; readers never block.
package features

import (
	"strings"
	"sync/atomic"

	"github.com/spf13/cast"
)

type Key string

const (
	ESPEnabled       Key = "esp_enabled"
	ESPBox           Key = "esp_box"
	ESPName          Key = "esp_name"
	ESPHealth        Key = "esp_health"
	ESPDistance      Key = "esp_distance"
	ESPSnaplines     Key = "esp_snaplines"
	ShowSpeed        Key = "show_speed"
	ShowPosition     Key = "show_position"
	CrosshairEnabled Key = "crosshair_enabled"
	FOVCircle        Key = "fov_circle"
	FOVCircleRadius  Key = "fov_circle_radius"
)

type kind int

const (
	kindBool kind = iota
	kindNumber
)

var known = map[Key]kind{
	ESPEnabled:       kindBool,
	ESPBox:           kindBool,
	ESPName:          kindBool,
	ESPHealth:        kindBool,
	ESPDistance:      kindBool,
	ESPSnaplines:     kindBool,
	ShowSpeed:        kindBool,
	ShowPosition:     kindBool,
	CrosshairEnabled: kindBool,
	FOVCircle:        kindBool,
	FOVCircleRadius:  kindNumber,
}

// Known reports whether name is a recognized key.
func Known(name string) bool {
	_, ok := known[Key(strings.ToLower(name))]
	return ok
}

type values map[Key]interface{}

// Flags is a typed view over a copy-on-write map of recognized keys.
type Flags struct {
	current atomic.Pointer[values]
}

// New creates flags from raw configuration values; unknown keys are dropped.
func New(raw map[string]interface{}) *Flags {
	f := &Flags{}
	empty := values{}
	f.current.Store(&empty)
	f.Apply(raw)
	return f
}

// Set stores one value. It reports false for unknown keys and for values
// that cannot be converted to the key's type.
func (f *Flags) Set(name string, value interface{}) bool {
	return f.Apply(map[string]interface{}{name: value}) == 1
}

// Apply stores every recognized, convertible entry in one swap and returns
// how many were applied.
func (f *Flags) Apply(raw map[string]interface{}) int {
	parsed := make(values, len(raw))
	for name, value := range raw {
		key := Key(strings.ToLower(name))
		k, ok := known[key]
		if !ok {
			continue
		}
		switch k {
		case kindBool:
			b, err := cast.ToBoolE(value)
			if err != nil {
				continue
			}
			parsed[key] = b
		case kindNumber:
			n, err := cast.ToFloat64E(value)
			if err != nil {
				continue
			}
			parsed[key] = n
		}
	}
	if len(parsed) == 0 {
		return 0
	}

	for {
		old := f.current.Load()
		next := make(values, len(*old)+len(parsed))
		for k, v := range *old {
			next[k] = v
		}
		for k, v := range parsed {
			next[k] = v
		}
		if f.current.CompareAndSwap(old, &next) {
			return len(parsed)
		}
	}
}

// Bool returns the key's value, false when unset or not a boolean key.
func (f *Flags) Bool(key Key) bool {
	b, _ := (*f.current.Load())[key].(bool)
	return b
}

// Float returns the key's value, zero when unset or not a numeric key.
func (f *Flags) Float(key Key) float64 {
	n, _ := (*f.current.Load())[key].(float64)
	return n
}

// View is a consistent copy of every flag taken from one map version.
type View struct {
	ESPEnabled       bool
	ESPBox           bool
	ESPName          bool
	ESPHealth        bool
	ESPDistance      bool
	ESPSnaplines     bool
	ShowSpeed        bool
	ShowPosition     bool
	CrosshairEnabled bool
	FOVCircle        bool
	FOVCircleRadius  float64
}

func (f *Flags) View() View {
	m := *f.current.Load()
	b := func(k Key) bool {
		v, _ := m[k].(bool)
		return v
	}
	radius, _ := m[FOVCircleRadius].(float64)
	return View{
		ESPEnabled:       b(ESPEnabled),
		ESPBox:           b(ESPBox),
		ESPName:          b(ESPName),
		ESPHealth:        b(ESPHealth),
		ESPDistance:      b(ESPDistance),
		ESPSnaplines:     b(ESPSnaplines),
		ShowSpeed:        b(ShowSpeed),
		ShowPosition:     b(ShowPosition),
		CrosshairEnabled: b(CrosshairEnabled),
		FOVCircle:        b(FOVCircle),
		FOVCircleRadius:  radius,
	}
}

// Map returns a copy of the current values keyed by name.
func (f *Flags) Map() map[string]interface{} {
	m := *f.current.Load()
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[string(k)] = v
	}
	return out
}
