package offsets

import (
	"fmt"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Load reads an offset document of the form
//
//	{ "Roblox Version": "version-...", "Offsets": { "Instance": { "Name": 176 } } }
//
// On any error the built-in table is returned together with the error, so
// callers can keep running against the last known layout.
func Load(path string) (*Table, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	if err := v.ReadInConfig(); err != nil {
		return Default(), fmt.Errorf("read offsets %s: %w", path, err)
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Table, error) {
	// viper lower-cases keys; New matches case-insensitively
	version := v.GetString("roblox version")
	if version == "" {
		version = "unknown"
	}

	raw := v.GetStringMap("offsets")
	if len(raw) == 0 {
		return Default(), fmt.Errorf("offsets document has no Offsets section")
	}

	overrides := make(map[string]map[string]int64, len(raw))
	for category, value := range raw {
		fields, err := cast.ToStringMapE(value)
		if err != nil {
			continue
		}
		out := make(map[string]int64, len(fields))
		for field, fv := range fields {
			n, err := cast.ToInt64E(fv)
			if err != nil {
				continue
			}
			out[field] = n
		}
		overrides[category] = out
	}

	return New(version, overrides), nil
}
