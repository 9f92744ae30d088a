package config

import (
	"errors"
	"fmt"
)

var supportedOutputFormats = map[string]struct{}{
	"mov": {},
	"mkv": {},
	"mxf": {},
	"m2ts": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if c.Paths.DestinationDir == "" {
		return errors.New("paths.destination_dir must be set")
	}
	if c.Paths.LogDir == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.Paths.LedgerDir == "" {
		return errors.New("paths.ledger_dir must be set")
	}
	if format := c.Packaging.OutputFormat; format != "" {
		if _, ok := supportedOutputFormats[format]; !ok {
			return fmt.Errorf("packaging.output_format %q is not supported (mov, mkv, mxf, m2ts)", format)
		}
	}
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format %q is not supported (console, json)", c.Logging.Format)
	}
	return nil
}
