// Package setup holds the wiring shared by the registry and the marketplace binaries.
package setup

import (
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/x-xyz/gatemarket/base/ctx"
	"github.com/x-xyz/gatemarket/base/database/mongoclient"
	"github.com/x-xyz/gatemarket/base/database/redisclient"
	"github.com/x-xyz/gatemarket/base/log"
	"github.com/x-xyz/gatemarket/base/metrics"
	"github.com/x-xyz/gatemarket/base/serial"
	bValidator "github.com/x-xyz/gatemarket/base/validator"
	"github.com/x-xyz/gatemarket/domain"
	mmiddleware "github.com/x-xyz/gatemarket/middleware"
	"github.com/x-xyz/gatemarket/service/query"
	"github.com/x-xyz/gatemarket/service/redis"
	"github.com/x-xyz/gatemarket/service/remote"
	"github.com/x-xyz/gatemarket/service/xcall"
	auth_delivery "github.com/x-xyz/gatemarket/stores/auth/delivery/http"
	auth_middleware "github.com/x-xyz/gatemarket/stores/auth/delivery/http/middleware"
	auth_usecase "github.com/x-xyz/gatemarket/stores/auth/usecase"
	hc_delivery "github.com/x-xyz/gatemarket/stores/healthcheck/delivery/http"
	hc_repo "github.com/x-xyz/gatemarket/stores/healthcheck/repository"
	hc_usecase "github.com/x-xyz/gatemarket/stores/healthcheck/usecase"
)

const (
	StorageMemory = "memory"
	StorageMongo  = "mongo"
)

// LoadConfig reads infra/configs/<service>.yaml, or the file given by --config.
// Environment variables override file values, e.g. SERVER_ADDRESS for server.address.
func LoadConfig(service string) {
	flags := pflag.NewFlagSet(service, pflag.ExitOnError)
	path := flags.String("config", "infra/configs/"+service+".yaml", "config file")
	_ = flags.Parse(os.Args[1:])

	viper.SetConfigType("yaml")
	viper.SetConfigFile(*path)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("storage.driver", StorageMemory)
	viper.SetDefault("lock.ttl", 5*time.Second)
	viper.SetDefault("xcall.workers", 16)
	viper.SetDefault("xcall.timeout", 10*time.Second)
	viper.SetDefault("http.timeout", 5*time.Second)
	if err := viper.ReadInConfig(); err != nil {
		panic(err)
	}

	if err := log.Setup(service, viper.GetBool("debug")); err != nil {
		panic(err)
	}
	if viper.GetBool("debug") {
		log.Log().Info("Service RUN on DEBUG mode")
	}
}

// Infra is the backends a service talks to. Mongo and Redis are nil when not configured.
type Infra struct {
	Service   domain.AccountId
	Mongo     *mongoclient.Client
	Query     query.Mongo
	Redis     redis.Service
	Exec      serial.Executor
	Auth      domain.AuthUsecase
	Directory *remote.Directory
	Xcall     xcall.Dispatcher
}

func NewInfra(c ctx.Ctx, service string) *Infra {
	in := &Infra{Service: domain.AccountId(viper.GetString("service.accountId"))}

	switch driver := viper.GetString("storage.driver"); driver {
	case StorageMongo:
		c.Info("init mongo")
		in.Mongo = mongoclient.MustConnectMongoClient(mongoclient.Config{
			URI:                viper.GetString("mongo.uri"),
			AuthDBName:         viper.GetString("mongo.authDBName"),
			DBName:             viper.GetString("mongo.dbName"),
			SSL:                viper.GetBool("mongo.enableSSL"),
			SetSafe:            true,
			PoolSizeMultiplier: 2,
		})
		in.Query = query.New(in.Mongo)
	case StorageMemory:
		c.Warn("state is kept in memory and lost on restart")
	default:
		c.WithField("driver", driver).Panic("unknown storage driver")
	}

	if uri := viper.GetString("redis.uri"); uri != "" {
		c.Info("init redis")
		name := viper.GetString("redis.name")
		pool := redisclient.MustConnectRedis(redisclient.Config{
			URI:            uri,
			Password:       viper.GetString("redis.password"),
			PoolMultiplier: viper.GetFloat64("redis.poolMultiplier"),
			Retry:          true,
		})
		in.Redis = redis.New(name, metrics.New("redis"), pool)
		// replicas of one service share the lease
		in.Exec = serial.NewDistributed(service, in.Redis, viper.GetDuration("lock.ttl"))
	} else {
		in.Exec = serial.NewLocal()
	}

	in.Auth = auth_usecase.New(viper.GetString("auth.jwtSecret"))
	in.Directory = remote.NewDirectory()
	in.Xcall = xcall.New(
		xcall.WithWorkers(viper.GetInt("xcall.workers")),
		xcall.WithTimeout(viper.GetDuration("xcall.timeout")),
	)
	return in
}

// ClientCfg is the transport setting for calls to peer services
func (in *Infra) ClientCfg() *remote.ClientCfg {
	return &remote.ClientCfg{
		HttpClient: http.Client{},
		Timeout:    viper.GetDuration("http.timeout"),
		From:       in.Service,
		Auth:       in.Auth,
	}
}

// Peer is a service endpoint, listed rather than keyed since account ids contain dots
type Peer struct {
	AccountId domain.AccountId `mapstructure:"accountId"`
	Url       string           `mapstructure:"url"`
}

// Peers returns the configured peers of kind, markets or registries
func Peers(c ctx.Ctx, kind string) []Peer {
	res := []Peer{}
	if err := viper.UnmarshalKey("peers."+kind, &res); err != nil {
		c.WithField("err", err).Panic("invalid peers." + kind)
	}
	return res
}

// NewEcho builds the server with the middlewares and endpoints both services share
func (in *Infra) NewEcho(service string) (*echo.Echo, *auth_middleware.AuthMiddleware) {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{}))
	middL := mmiddleware.InitMiddleware(service)
	e.Use(middL.AddContext())
	e.Use(middL.ResponseLogger())
	e.Use(middL.CORS)
	e.Use(mmiddleware.CacheHttp(mmiddleware.NewCacheProvider(in.Redis), viper.GetDuration("cache.ttl"), mmiddleware.DefaultCacheBypass...))
	e.Validator = bValidator.NewCustomValidator(bValidator.New())

	authMiddleware := auth_middleware.New(in.Auth, viper.GetStringSlice("admin.accountIds"))
	if viper.GetBool("auth.issueTokens") {
		auth_delivery.New(e, in.Auth)
	}

	hcRepo := hc_repo.New(in.Mongo, in.Redis)
	hc_delivery.New(e, hc_usecase.New(in.Service.String(), hcRepo))
	return e, authMiddleware
}

// Serve runs e until SIGINT or SIGTERM, then drains outstanding cross service calls
func (in *Infra) Serve(c ctx.Ctx, e *echo.Echo) {
	go func() {
		if err := e.Start(viper.GetString("server.address")); err != nil && err != http.ErrServerClosed {
			log.Log().WithField("err", err).Error("shutting down the server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 10 seconds.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	sig := <-quit
	log.Log().WithField("signal", sig).Info("received signal")
	tc, cancel := ctx.WithTimeout(c, 10*time.Second)
	defer cancel()
	if err := e.Shutdown(tc); err != nil {
		log.Log().WithField("err", err).Error("shutting down the server")
	} else {
		log.Log().Info("shutdown server successfully")
	}
	in.Xcall.Release()
	log.Sync()
}
