package health

import (
	"fmt"

	"github.com/cloudnebula/reddwarf/pkg/types"
)

// FromSpec builds a Checker from a Container's declared HealthCheck,
// the bridge between the wire-level types.HealthCheck a Pod spec
// carries and the Checker implementations below.
func FromSpec(hc *types.HealthCheck) (Checker, error) {
	if hc == nil {
		return nil, fmt.Errorf("health: nil HealthCheck")
	}
	switch hc.Type {
	case types.HealthCheckHTTP:
		if hc.Endpoint == "" {
			return nil, fmt.Errorf("health: http check requires an endpoint")
		}
		checker := NewHTTPChecker(hc.Endpoint)
		if hc.Timeout > 0 {
			checker.WithTimeout(hc.Timeout)
		}
		return checker, nil
	case types.HealthCheckTCP:
		if hc.Endpoint == "" {
			return nil, fmt.Errorf("health: tcp check requires an endpoint")
		}
		checker := NewTCPChecker(hc.Endpoint)
		if hc.Timeout > 0 {
			checker.WithTimeout(hc.Timeout)
		}
		return checker, nil
	case types.HealthCheckExec:
		if len(hc.Command) == 0 {
			return nil, fmt.Errorf("health: exec check requires a command")
		}
		return NewExecChecker(hc.Command), nil
	default:
		return nil, fmt.Errorf("health: unknown check type %q", hc.Type)
	}
}

// ConfigFromSpec derives a health Config from a Container's HealthCheck,
// falling back to DefaultConfig for unset fields.
func ConfigFromSpec(hc *types.HealthCheck) Config {
	cfg := DefaultConfig()
	if hc == nil {
		return cfg
	}
	if hc.Interval > 0 {
		cfg.Interval = hc.Interval
	}
	if hc.Timeout > 0 {
		cfg.Timeout = hc.Timeout
	}
	if hc.Retries > 0 {
		cfg.Retries = hc.Retries
	}
	return cfg
}
