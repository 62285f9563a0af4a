package mongoclient

import (
	"context"
	"crypto/tls"
	"runtime"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/x-xyz/gatemarket/base/log"
)

const (
	socketTimeout  = 60 * time.Second
	connectTimeout = 10 * time.Second
)

// Client is a connected driver client bound to one database
type Client struct {
	DbName string
	*mongo.Client
}

type Config struct {
	URI string
	// AuthDBName is the auth source used when the uri carries credentials but no authSource
	AuthDBName string
	DBName     string
	SSL        bool
	// SetSafe waits for a majority of the replica set on every write
	SetSafe bool
	// PoolSizeMultiplier scales the pool by the cpu count, 1 when unset
	PoolSizeMultiplier float64
}

// MustConnectMongoClient panics when the database cannot be reached
func MustConnectMongoClient(cfg Config) *Client {
	cli, err := ConnectMongoClient(cfg)
	if err != nil {
		log.Log().WithFields(log.Fields{"mongoURI": cfg.URI, "err": err}).Panic("fail to dial Mongo")
	}
	return cli
}

// poolSize spreads cpu * multiplier connections over the hosts of the uri, each host keeps its own pool
func poolSize(multiplier float64, hosts int) uint64 {
	if multiplier <= 0 {
		multiplier = 1
	}
	if hosts < 1 {
		hosts = 1
	}
	total := int(float64(runtime.NumCPU()) * multiplier)
	per := (total + hosts - 1) / hosts
	if per < 1 {
		per = 1
	}
	return uint64(per)
}

func clientOptions(cfg Config, cs connstring.ConnString) *options.ClientOptions {
	size := poolSize(cfg.PoolSizeMultiplier, len(cs.Hosts))
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetSocketTimeout(socketTimeout).
		SetRegistry(NewRegistry()).
		SetMaxPoolSize(size).
		SetMinPoolSize(size / 4).
		SetRetryWrites(true)

	if cs.Username != "" && cs.AuthSource == "" {
		opts.SetAuth(options.Credential{
			AuthMechanism:           cs.AuthMechanism,
			AuthMechanismProperties: cs.AuthMechanismProperties,
			Username:                cs.Username,
			Password:                cs.Password,
			PasswordSet:             cs.PasswordSet,
			AuthSource:              cfg.AuthDBName,
		})
	}
	if cfg.SSL {
		opts.SetTLSConfig(&tls.Config{})
	}
	if cfg.SetSafe {
		opts.SetWriteConcern(writeconcern.New(writeconcern.WMajority()))
	}
	return opts
}

// ConnectMongoClient dials cfg.URI and waits for the primary to answer a ping
func ConnectMongoClient(cfg Config) (*Client, error) {
	cs, err := connstring.Parse(cfg.URI)
	if err != nil {
		log.Log().WithFields(log.Fields{"dbName": cfg.DBName, "err": err}).Error("fail to parse mongo uri")
		return nil, err
	}
	logger := log.Log().WithFields(log.Fields{"mongoHosts": cs.Hosts, "dbName": cfg.DBName})

	c, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	client, err := mongo.Connect(c, clientOptions(cfg, cs))
	if err != nil {
		logger.WithField("err", err).Error("fail to connect mongo")
		return nil, err
	}
	if err := client.Ping(c, readpref.Primary()); err != nil {
		logger.WithField("err", err).Error("fail to ping mongo")
		client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("mongo connected")
	return &Client{DbName: cfg.DBName, Client: client}, nil
}
