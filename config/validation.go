package config

import (
	"fmt"
	"net/url"

	"github.com/grovetools/seqrkit/errors"
)

var exportFormats = map[string]bool{"tsv": true, "csv": true}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return errors.New(errors.ErrCodeConfigValidation,
				fmt.Sprintf("api.base_url must be an absolute http(s) URL: %s", c.API.BaseURL)).
				WithDetail("base_url", c.API.BaseURL)
		}
	}

	if c.Report.BatchSize < 1 {
		return errors.New(errors.ErrCodeConfigValidation, "report.batch_size must be at least 1").
			WithDetail("batch_size", c.Report.BatchSize)
	}

	if c.Report.ExportFormat != "" && !exportFormats[c.Report.ExportFormat] {
		return errors.New(errors.ErrCodeConfigValidation,
			fmt.Sprintf("invalid report.export_format: %s (must be tsv or csv)", c.Report.ExportFormat)).
			WithDetail("export_format", c.Report.ExportFormat)
	}

	if c.Persistence.ThrottleMs < 0 {
		return errors.New(errors.ErrCodeConfigValidation, "persistence.throttle_ms cannot be negative").
			WithDetail("throttle_ms", c.Persistence.ThrottleMs)
	}

	return nil
}
