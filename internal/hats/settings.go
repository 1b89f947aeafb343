package hats

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

// Editor settings keys holding hat enablement overrides.
const (
	ColorsKey = "cursorless.hatEnablement.colors"
	ShapesKey = "cursorless.hatEnablement.shapes"
)

// Settings is the enablement override read from the editor settings file.
// Keys are style identifiers ("red", "crosshairs"), not spoken forms.
type Settings struct {
	Colors map[string]bool
	Shapes map[string]bool
}

// LoadSettings reads the settings file. A missing file yields empty settings.
func LoadSettings(path string) (Settings, error) {
	if path == "" {
		return Settings{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return ParseSettings(data)
}

// ParseSettings extracts the enablement keys from a flat settings document.
// Editor settings files are JSON with comments and trailing commas; those
// are stripped first. Other keys are ignored.
func ParseSettings(data []byte) (Settings, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Settings{}, nil
	}

	// Standardize blanks out comments in place, so yaml line numbers
	// still point into the original file.
	std, err := hujson.Standardize(data)
	if err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}

	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(std, &raw); err != nil {
		return Settings{}, fmt.Errorf("parse settings: %w", err)
	}

	var s Settings
	if s.Colors, err = enablement(raw, ColorsKey); err != nil {
		return Settings{}, err
	}
	if s.Shapes, err = enablement(raw, ShapesKey); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func enablement(raw map[string]yaml.Node, key string) (map[string]bool, error) {
	node, ok := raw[key]
	if !ok {
		return nil, nil
	}
	var out map[string]bool
	if err := node.Decode(&out); err != nil {
		return nil, fmt.Errorf("settings %s (line %d): %w", key, node.Line, err)
	}
	return out, nil
}

// Enablement merges the defaults with the override; override wins.
func Enablement(defaults, override map[string]bool) map[string]bool {
	out := maps.Clone(defaults)
	if out == nil {
		out = make(map[string]bool)
	}
	maps.Copy(out, override)
	return out
}
