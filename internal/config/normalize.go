package config

import "strings"

func (c *Config) normalize() error {
	for _, field := range []*string{
		&c.Paths.DestinationDir,
		&c.Paths.LogDir,
		&c.Paths.LedgerDir,
	} {
		trimmed := strings.TrimSpace(*field)
		if trimmed == "" {
			*field = trimmed
			continue
		}
		expanded, err := expandPath(trimmed)
		if err != nil {
			return err
		}
		*field = expanded
	}

	c.Tools.FFmpeg = strings.TrimSpace(c.Tools.FFmpeg)
	c.Tools.FFprobe = strings.TrimSpace(c.Tools.FFprobe)
	c.Packaging.Operator = strings.TrimSpace(c.Packaging.Operator)
	c.Packaging.OutputFormat = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(c.Packaging.OutputFormat)), ".")
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	return nil
}
