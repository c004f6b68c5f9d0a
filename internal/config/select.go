package config

import (
	"fmt"
	"strings"

	dagerrors "github.com/stevehiehn/theaterdash/internal/errors"
	"github.com/stevehiehn/theaterdash/internal/registry"
)

// Select turns step selections into pipeline flag overrides. Each name may
// be a step name or a flag name; steps gated by the same flag are selected
// together. With only set, every flag not named is disabled. skip is applied
// after only.
func (c *Config) Select(only, skip []string) error {
	if len(only) > 0 {
		keep := map[string]bool{}
		for _, name := range only {
			flag, err := selectionFlag(name)
			if err != nil {
				return err
			}
			keep[flag] = true
		}
		for _, flag := range registry.Flags() {
			if !keep[flag] {
				c.Pipeline.SetFlag(flag, false)
			}
		}
	}
	for _, name := range skip {
		flag, err := selectionFlag(name)
		if err != nil {
			return err
		}
		c.Pipeline.SetFlag(flag, false)
	}
	return nil
}

func selectionFlag(name string) (string, error) {
	name = strings.TrimSpace(name)
	if s, ok := registry.StepByName(name); ok {
		return s.Flag, nil
	}
	if registry.KnownFlag(name) {
		return name, nil
	}
	var names []string
	for _, s := range registry.Steps() {
		names = append(names, s.Name)
	}
	return "", dagerrors.NewValidationError(
		fmt.Sprintf("unknown step %q", name),
		"Known steps: "+strings.Join(names, ", "))
}
