package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// parseEnv checks ["KEY=VALUE", ...] and returns it as environment entries.
func parseEnv(raw []string) ([]string, error) {
	out := make([]string, 0, len(raw))
	for _, kv := range raw {
		key, _, ok := strings.Cut(kv, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid --env %q, expected KEY=VALUE", kv)
		}
		out = append(out, kv)
	}
	return out, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
