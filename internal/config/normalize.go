package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments and warnings from the normalization pass.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig canonicalizes enumerated and bounded fields before defaults
// are applied. Unknown backend kinds are left in place for validation to reject.
func NormalizeConfig(c *Config) (*NormalizationResult, error) {
	if c == nil {
		return nil, fmt.Errorf("config nil")
	}
	res := &NormalizationResult{}
	normalizeLogging(&c.Logging, res)

	if k := NormalizeStorageKind(string(c.Storage.Kind)); k != "" && k != c.Storage.Kind {
		res.Warnings = append(res.Warnings, warnChanged("storage.kind", c.Storage.Kind, k))
		c.Storage.Kind = k
	}
	if k := NormalizeRecordsKind(string(c.Records.Kind)); k != "" && k != c.Records.Kind {
		res.Warnings = append(res.Warnings, warnChanged("records.kind", c.Records.Kind, k))
		c.Records.Kind = k
	}
	if b := NormalizeBackoff(string(c.Alerts.Backoff)); b != "" && b != c.Alerts.Backoff {
		res.Warnings = append(res.Warnings, warnChanged("alerts.backoff", c.Alerts.Backoff, b))
		c.Alerts.Backoff = b
	}

	c.Payments.Currency = strings.ToLower(strings.TrimSpace(c.Payments.Currency))
	if c.Payments.MaxNetworkRetries < 0 {
		res.Warnings = append(res.Warnings, warnChanged("payments.max_network_retries", c.Payments.MaxNetworkRetries, 0))
		c.Payments.MaxNetworkRetries = 0
	}
	if c.Deploy.Rate < 0 {
		res.Warnings = append(res.Warnings, warnChanged("deploy.rate", c.Deploy.Rate, 0))
		c.Deploy.Rate = 0
	}
	c.Site.BaseURL = strings.TrimRight(strings.TrimSpace(c.Site.BaseURL), "/")
	return res, nil
}

func normalizeLogging(l *LoggingConfig, res *NormalizationResult) {
	if lvl := NormalizeLogLevel(string(l.Level)); lvl != "" {
		if l.Level != lvl {
			res.Warnings = append(res.Warnings, warnChanged("logging.level", l.Level, lvl))
			l.Level = lvl
		}
	} else if strings.TrimSpace(string(l.Level)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("logging.level", string(l.Level), string(LogLevelInfo)))
		l.Level = LogLevelInfo
	}
	if f := NormalizeLogFormat(string(l.Format)); f != "" {
		if l.Format != f {
			res.Warnings = append(res.Warnings, warnChanged("logging.format", l.Format, f))
			l.Format = f
		}
	} else if strings.TrimSpace(string(l.Format)) != "" {
		res.Warnings = append(res.Warnings, warnUnknown("logging.format", string(l.Format), string(LogFormatText)))
		l.Format = LogFormatText
	}
}

func warnChanged(field string, from, to interface{}) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}
