package config

import (
	"os"
	"strings"
)

// Features holds named on/off switches resolved once at startup. Each
// flag can be overridden with FEATURE_<NAME> (upper-cased, e.g.
// FEATURE_DETECTOR_AUTO_DEACTIVATE=false); unset flags keep their
// default.
type Features struct {
	flags map[string]bool
}

// NewFeatures resolves defaults against the environment.
func NewFeatures(defaults map[string]bool) *Features {
	flags := make(map[string]bool, len(defaults))
	for name, def := range defaults {
		flags[name] = def
		if v := os.Getenv("FEATURE_" + strings.ToUpper(name)); v != "" {
			flags[name] = v == "true" || v == "1"
		}
	}
	return &Features{flags: flags}
}

// IsEnabled reports whether a flag is on. Unknown flags are off.
func (f *Features) IsEnabled(name string) bool {
	return f.flags[name]
}

// Enabled returns the names of all flags currently on, for startup
// logging.
func (f *Features) Enabled() []string {
	var out []string
	for name, on := range f.flags {
		if on {
			out = append(out, name)
		}
	}
	return out
}
