package main

import (
	"github.com/spf13/viper"

	"github.com/x-xyz/gatemarket/app/internal/setup"
	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/domain"
	"github.com/x-xyz/gatemarket/domain/fraction"
	"github.com/x-xyz/gatemarket/domain/gate"
	"github.com/x-xyz/gatemarket/domain/token"
	"github.com/x-xyz/gatemarket/service/remote"
	gate_delivery "github.com/x-xyz/gatemarket/stores/gate/delivery/http"
	gate_repository "github.com/x-xyz/gatemarket/stores/gate/repository"
	gate_usecase "github.com/x-xyz/gatemarket/stores/gate/usecase"
	token_delivery "github.com/x-xyz/gatemarket/stores/token/delivery/http"
	token_repository "github.com/x-xyz/gatemarket/stores/token/repository"
	token_usecase "github.com/x-xyz/gatemarket/stores/token/usecase"
)

const service = "registry"

func init() {
	setup.LoadConfig(service)
}

func main() {
	context := ctx.Background()
	infra := setup.NewInfra(context, service)

	var (
		gateRepo  gate.Repo
		tokenRepo token.Repo
		tx        func(c ctx.Ctx, fn func(ctx.Ctx) error) error
	)
	if infra.Query != nil {
		if err := gate_repository.EnsureIndexes(context, infra.Query); err != nil {
			context.WithField("err", err).Panic("gate_repository.EnsureIndexes failed")
		}
		if err := token_repository.EnsureIndexes(context, infra.Query); err != nil {
			context.WithField("err", err).Panic("token_repository.EnsureIndexes failed")
		}
		gateRepo = gate_repository.New(infra.Query)
		tokenRepo = token_repository.New(infra.Query)
		tx = infra.Query.RunWithTransaction
	} else {
		gateRepo = gate_repository.NewMemory()
		tokenRepo = token_repository.NewMemory()
	}

	platformFee, err := fraction.Parse(viper.GetString("registry.platformFee"))
	if err != nil {
		context.WithField("err", err).Panic("invalid registry.platformFee")
	}

	for _, p := range setup.Peers(context, "markets") {
		infra.Directory.AddMarket(p.AccountId, remote.NewHttpMarket(p.Url, infra.ClientCfg()))
	}

	metadata := token.ContractMetadata{}
	if err := viper.UnmarshalKey("registry.metadata", &metadata); err != nil {
		context.WithField("err", err).Panic("invalid registry.metadata")
	}

	admins := []domain.AccountId{}
	for _, a := range viper.GetStringSlice("admin.accountIds") {
		admins = append(admins, domain.AccountId(a))
	}

	gateUsecase := gate_usecase.New(&gate_usecase.GateUseCaseCfg{
		Exec:        infra.Exec,
		GateRepo:    gateRepo,
		TokenRepo:   tokenRepo,
		Admins:      admins,
		PlatformFee: platformFee,
		Tx:          tx,
	})
	tokenUsecase := token_usecase.New(&token_usecase.TokenUseCaseCfg{
		Exec:        infra.Exec,
		TokenRepo:   tokenRepo,
		GateRepo:    gateRepo,
		Directory:   infra.Directory,
		Dispatcher:  infra.Xcall,
		PlatformFee: platformFee,
		FeeAccount:  domain.AccountId(viper.GetString("registry.feeAccountId")),
		Metadata:    metadata,
	})

	e, authMiddleware := infra.NewEcho(service)
	gate_delivery.New(e, gateUsecase, authMiddleware)
	token_delivery.New(e, tokenUsecase, authMiddleware)

	infra.Serve(context, e)
}
