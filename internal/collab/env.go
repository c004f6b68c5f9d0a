package collab

import (
	"fmt"

	"github.com/stevehiehn/theaterdash/internal/config"
	dagerrors "github.com/stevehiehn/theaterdash/internal/errors"
	"github.com/stevehiehn/theaterdash/internal/registry"
)

// resolveCredentials looks up every secret the step declares. The first
// missing one is reported as a config error.
func resolveCredentials(step registry.Step, cfg *config.Config) (map[string]string, error) {
	creds := map[string]string{}
	for _, name := range step.Credentials {
		val, ok := cfg.Credential(name)
		if !ok {
			return nil, dagerrors.NewConfigError(step.Name,
				fmt.Sprintf("credential %s is not set", name),
				fmt.Sprintf("Export %s or set credentials.%s in the config file", name, name))
		}
		creds[name] = val
	}
	return creds, nil
}
