package inlay

import "gopkg.in/yaml.v3"

// Settings controls which hint kinds are shown.
type Settings struct {
	// Enabled is the master switch. When false no kind is visible and fetching stops.
	Enabled            bool `yaml:"enabled"`
	ShowTypeHints      bool `yaml:"show_type_hints"`
	ShowParameterHints bool `yaml:"show_parameter_hints"`
	ShowOtherHints     bool `yaml:"show_other_hints"`
}

// DefaultSettings shows every kind.
func DefaultSettings() Settings {
	return Settings{
		Enabled:            true,
		ShowTypeHints:      true,
		ShowParameterHints: true,
		ShowOtherHints:     true,
	}
}

// Kinds maps the flags onto the set of visible kinds.
func (s Settings) Kinds() KindSet {
	var kinds KindSet
	if !s.Enabled {
		return kinds
	}

	if s.ShowTypeHints {
		kinds = kinds.Add(KindType)
	}

	if s.ShowParameterHints {
		kinds = kinds.Add(KindParameter)
	}

	if s.ShowOtherHints {
		kinds = kinds.Add(KindOther)
	}

	return kinds
}

// UnmarshalYAML fills fields missing from node with their defaults.
func (s *Settings) UnmarshalYAML(node *yaml.Node) error {
	type plain Settings

	p := plain(DefaultSettings())

	err := node.Decode(&p)
	if err != nil {
		return err
	}

	*s = Settings(p)

	return nil
}
