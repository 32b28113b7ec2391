package config

// mergeConfigs merges override configuration into base
func mergeConfigs(base, override *Config) *Config {
	result := *base

	if override.Name != "" {
		result.Name = override.Name
	}
	if override.Version != "" {
		result.Version = override.Version
	}

	result.API = mergeAPI(result.API, override.API)
	result.Report = mergeReport(result.Report, override.Report)
	result.Persistence = mergePersistence(result.Persistence, override.Persistence)

	// Merge extensions
	if override.Extensions != nil {
		merged := make(map[string]interface{}, len(result.Extensions)+len(override.Extensions))
		for key, value := range result.Extensions {
			merged[key] = value
		}
		for key, value := range override.Extensions {
			// If both base and override have the same extension key, merge them
			if baseValue, exists := merged[key]; exists {
				if baseMap, baseOk := baseValue.(map[string]interface{}); baseOk {
					if overrideMap, overrideOk := value.(map[string]interface{}); overrideOk {
						mergedMap := make(map[string]interface{})
						for k, v := range baseMap {
							mergedMap[k] = v
						}
						for k, v := range overrideMap {
							mergedMap[k] = v
						}
						merged[key] = mergedMap
						continue
					}
				}
			}
			// Otherwise just replace
			merged[key] = value
		}
		result.Extensions = merged
	}

	return &result
}

func mergeAPI(base, override APIConfig) APIConfig {
	result := base

	if override.BaseURL != "" {
		result.BaseURL = override.BaseURL
	}
	if override.CSRFToken != "" {
		result.CSRFToken = override.CSRFToken
	}
	if len(override.Headers) > 0 {
		headers := make(map[string]string, len(base.Headers)+len(override.Headers))
		for k, v := range base.Headers {
			headers[k] = v
		}
		for k, v := range override.Headers {
			headers[k] = v
		}
		result.Headers = headers
	}

	return result
}

func mergeReport(base, override ReportConfig) ReportConfig {
	result := base

	if override.BatchSize != 0 {
		result.BatchSize = override.BatchSize
	}
	if override.AllScope != "" {
		result.AllScope = override.AllScope
	}
	if override.ExportFormat != "" {
		result.ExportFormat = override.ExportFormat
	}
	if override.RowsKey != "" {
		result.RowsKey = override.RowsKey
	}

	return result
}

func mergePersistence(base, override PersistenceConfig) PersistenceConfig {
	result := base

	if override.Enabled != nil {
		result.Enabled = override.Enabled
	}
	if override.Dir != "" {
		result.Dir = override.Dir
	}
	if override.ThrottleMs != 0 {
		result.ThrottleMs = override.ThrottleMs
	}

	return result
}
