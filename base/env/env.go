// Package env reads the deployment identity injected by the orchestrator.
package env

import (
	"os"
)

// PodName is the replica, e.g. prod-market-6868d88fbd-bz8zv
func PodName() string {
	return os.Getenv("PODNAME")
}

// EnvName is the deployment, e.g. prod or staging
func EnvName() string {
	return os.Getenv("ENV_NAME")
}

// ServiceName is registry or market
func ServiceName() string {
	return os.Getenv("SERVICE_NAME")
}
