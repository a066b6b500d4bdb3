package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is one deployment profile of engine defaults. Documentation of
// earlier engine revisions disagreed on these values, so they are a
// configuration choice rather than hard-coded behavior: "permissive"
// returns up to 20 offers with no reliability gate, "strict" returns 5
// offers from well-reviewed sellers only. Relaxing thresholds when a
// query comes back empty is the caller's job, not the engine's.
type Profile struct {
	Name             string  `yaml:"name"`
	DefaultLimit     int     `yaml:"default_limit"`
	MinReviews       int     `yaml:"min_reviews"`
	MinPositiveRatio float64 `yaml:"min_positive_ratio"`
}

var builtinProfiles = map[string]Profile{
	"permissive": {
		Name:             "permissive",
		DefaultLimit:     20,
		MinReviews:       0,
		MinPositiveRatio: 0.0,
	},
	"strict": {
		Name:             "strict",
		DefaultLimit:     5,
		MinReviews:       500,
		MinPositiveRatio: 0.98,
	},
}

// profileFile is the on-disk shape of a custom profile set
type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// ResolveProfile returns the named profile, consulting the YAML profile
// file first when one is configured. Unknown names are an error rather
// than a silent fallback.
func ResolveProfile(name, path string) (Profile, error) {
	if name == "" {
		name = "permissive"
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Profile{}, fmt.Errorf("failed to read profile file %s: %w", path, err)
		}
		var pf profileFile
		if err := yaml.Unmarshal(data, &pf); err != nil {
			return Profile{}, fmt.Errorf("failed to parse profile file %s: %w", path, err)
		}
		for _, p := range pf.Profiles {
			if p.Name == name {
				if err := validateProfile(p); err != nil {
					return Profile{}, fmt.Errorf("profile %q in %s: %w", name, path, err)
				}
				return p, nil
			}
		}
	}

	if p, ok := builtinProfiles[name]; ok {
		return p, nil
	}
	return Profile{}, fmt.Errorf("unknown profile %q (built-in: permissive, strict)", name)
}

func validateProfile(p Profile) error {
	if p.DefaultLimit < 1 {
		return fmt.Errorf("default_limit must be at least 1")
	}
	if p.MinReviews < 0 {
		return fmt.Errorf("min_reviews cannot be negative")
	}
	if p.MinPositiveRatio < 0 || p.MinPositiveRatio > 1 {
		return fmt.Errorf("min_positive_ratio must be between 0.0 and 1.0")
	}
	return nil
}
