package healthcheck

import (
	"github.com/x-xyz/gatemarket/base/ctx"
)

const (
	ComponentMongo = "mongo"
	ComponentRedis = "redis"

	StatusUp   = "up"
	StatusDown = "down"
)

// Report is what GET /health answers with
type Report struct {
	Service    string            `json:"service"`
	Healthy    bool              `json:"healthy"`
	Components map[string]string `json:"components"`
}

// Usecase folds the backend probes into one report
type Usecase interface {
	Check(c ctx.Ctx) Report
}

// Repo probes every configured backend, a nil error means the component is up.
// Backends that are not configured are absent from the result.
type Repo interface {
	Ping(c ctx.Ctx) map[string]error
}
