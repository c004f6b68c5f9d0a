package config

import (
	"fmt"
	"os"
	"strconv"
)

// Environment overrides.
const (
	EnvOutputDir         = "THEATERDASH_OUTPUT_DIR"
	EnvKeepIntermediates = "THEATERDASH_KEEP_INTERMEDIATES"
	EnvPublishAccessKey  = "THEATERDASH_PUBLISH_ACCESS_KEY"
	EnvPublishSecretKey  = "THEATERDASH_PUBLISH_SECRET_KEY"
	EnvHistoryDSN        = "THEATERDASH_HISTORY_DSN"
)

func envString(key string, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func envBool(key string, def bool) (bool, error) {
	if v, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, fmt.Errorf("parse %s: %w", key, err)
		}
		return b, nil
	}
	return def, nil
}

func (c *Config) applyEnv() error {
	c.Paths.OutputDir = envString(EnvOutputDir, c.Paths.OutputDir)
	keep, err := envBool(EnvKeepIntermediates, c.Pipeline.KeepIntermediates)
	if err != nil {
		return err
	}
	c.Pipeline.KeepIntermediates = keep
	c.Publish.AccessKey = envString(EnvPublishAccessKey, c.Publish.AccessKey)
	c.Publish.SecretKey = envString(EnvPublishSecretKey, c.Publish.SecretKey)
	c.History.DSN = envString(EnvHistoryDSN, c.History.DSN)
	return nil
}
