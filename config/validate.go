package config

import (
	"fmt"
	"net/url"
	"strings"
)

var logLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate checks the configuration without touching the network.
func (c *Config) Validate() error {
	u, err := url.Parse(strings.TrimSpace(c.RPCURL))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("RPCURL %q must be an absolute URL", c.RPCURL)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("RPCURL scheme %q not supported", u.Scheme)
	}
	if _, err := c.ProtocolAddresses(); err != nil {
		return err
	}
	if _, err := c.GasPriceWei(); err != nil {
		return err
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("RequestsPerSecond must not be negative")
	}
	if c.Gateway.RequestsPerMinute < 0 {
		return fmt.Errorf("gateway.RequestsPerMinute must not be negative")
	}
	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return fmt.Errorf("telemetry.SampleRatio must be between 0 and 1")
	}
	if _, ok := logLevels[strings.ToLower(strings.TrimSpace(c.LogLevel))]; !ok {
		return fmt.Errorf("LogLevel %q must be one of debug, info, warn, error", c.LogLevel)
	}
	return nil
}
