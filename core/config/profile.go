package config

import (
	"fmt"
	"os"
	"sort"

	"netsync/core/reconcile"

	"gopkg.in/yaml.v3"
)

// Kinds lists the entity kinds a profile can configure.
var Kinds = []string{"device", "vlan", "interface", "address", "inventory", "mac", "cable"}

// KindProfile tunes one entity kind. Unset switches inherit the run
// settings.
type KindProfile struct {
	Enabled *bool    `yaml:"enabled"`
	Create  *bool    `yaml:"create"`
	Update  *bool    `yaml:"update"`
	Cleanup *bool    `yaml:"cleanup"`
	Fields  []string `yaml:"fields"`
	Exclude []string `yaml:"exclude"`
}

// IsEnabled reports whether the kind is synchronized. Kinds are enabled
// unless switched off.
func (k KindProfile) IsEnabled() bool {
	return k.Enabled == nil || *k.Enabled
}

// Profile is the per-kind sync profile read from YAML:
//
//	kinds:
//	  interface:
//	    fields: [description, enabled, mtu]
//	    exclude: ["vl*"]
//	    cleanup: true
type Profile struct {
	Kinds map[string]KindProfile `yaml:"kinds"`
}

// Kind returns the settings of kind, zero when the profile is silent.
func (p *Profile) Kind(kind string) KindProfile {
	if p == nil {
		return KindProfile{}
	}
	return p.Kinds[kind]
}

// Apply overlays the kind's switches and lists onto base. fields is used
// when the profile does not name any.
func (k KindProfile) Apply(base reconcile.Options, fields []string) reconcile.Options {
	opts := base
	if k.Create != nil {
		opts.CreateMissing = *k.Create
	}
	if k.Update != nil {
		opts.UpdateExisting = *k.Update
	}
	if k.Cleanup != nil {
		opts.Cleanup = *k.Cleanup
	}
	opts.Fields = fields
	if len(k.Fields) > 0 {
		opts.Fields = k.Fields
	}
	opts.Exclude = append(append([]string(nil), base.Exclude...), k.Exclude...)
	return opts
}

// LoadProfile reads a profile file. An empty path yields the empty profile.
func LoadProfile(path string) (*Profile, error) {
	if path == "" {
		return &Profile{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes and validates a profile document.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse sync profile: %w", err)
	}

	known := make(map[string]bool, len(Kinds))
	for _, k := range Kinds {
		known[k] = true
	}
	names := make([]string, 0, len(p.Kinds))
	for name := range p.Kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if !known[name] {
			return nil, fmt.Errorf("sync profile: unknown kind %q", name)
		}
		if err := reconcile.ValidatePatterns(p.Kinds[name].Exclude); err != nil {
			return nil, fmt.Errorf("sync profile: %s: %w", name, err)
		}
	}
	return &p, nil
}
