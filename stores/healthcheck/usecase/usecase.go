package usecase

import (
	"sort"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/log"
	"github.com/x-xyz/gatemarket/domain/healthcheck"
)

type impl struct {
	service string
	repo    healthcheck.Repo
}

func New(service string, repo healthcheck.Repo) healthcheck.Usecase {
	return &impl{service: service, repo: repo}
}

func (im *impl) Check(c ctx.Ctx) healthcheck.Report {
	probes := im.repo.Ping(c)
	names := make([]string, 0, len(probes))
	for name := range probes {
		names = append(names, name)
	}
	sort.Strings(names)

	report := healthcheck.Report{
		Service:    im.service,
		Healthy:    true,
		Components: make(map[string]string, len(probes)),
	}
	for _, name := range names {
		if err := probes[name]; err != nil {
			c.WithFields(log.Fields{"err": err, "component": name}).Error("health probe failed")
			report.Healthy = false
			report.Components[name] = healthcheck.StatusDown
			continue
		}
		report.Components[name] = healthcheck.StatusUp
	}
	return report
}
