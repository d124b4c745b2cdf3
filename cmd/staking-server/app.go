package main

import (
	"context"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"

	pg "github.com/code-payments/staking-server/pkg/database/postgres"
	"github.com/code-payments/staking-server/pkg/grpc/app"
	"github.com/code-payments/staking-server/pkg/staking/api"
	"github.com/code-payments/staking-server/pkg/staking/common"
	"github.com/code-payments/staking-server/pkg/staking/ledger"
	leveldb_ledger "github.com/code-payments/staking-server/pkg/staking/ledger/leveldb"
	memory_ledger "github.com/code-payments/staking-server/pkg/staking/ledger/memory"
	postgres_ledger "github.com/code-payments/staking-server/pkg/staking/ledger/postgres"
	"github.com/code-payments/staking-server/pkg/staking/program"
	"github.com/code-payments/staking-server/pkg/staking/server"
)

const (
	memoryBackend   = "memory"
	postgresBackend = "postgres"
	leveldbBackend  = "leveldb"
)

type appConfig struct {
	// ProgramPrivateKey is the base58 private key of the staking program
	// account. Every program derived address depends on it. A random account
	// is generated when it's empty.
	ProgramPrivateKey string `mapstructure:"program_private_key"`

	LedgerBackend string     `mapstructure:"ledger_backend"`
	LevelDBPath   string     `mapstructure:"leveldb_path"`
	Postgres      *pg.Config `mapstructure:"postgres"`
}

func defaultAppConfig() *appConfig {
	return &appConfig{
		LedgerBackend: memoryBackend,
		LevelDBPath:   "staking-ledger",
	}
}

func parseAppConfig(config app.Config) (*appConfig, error) {
	parsed := defaultAppConfig()
	if err := mapstructure.Decode(config, parsed); err != nil {
		return nil, errors.Wrap(err, "error decoding app config")
	}

	switch parsed.LedgerBackend {
	case memoryBackend:
	case leveldbBackend:
		if len(parsed.LevelDBPath) == 0 {
			return nil, errors.New("leveldb_path is required for the leveldb backend")
		}
	case postgresBackend:
		if parsed.Postgres == nil {
			return nil, errors.New("postgres config is required for the postgres backend")
		}
		if err := parsed.Postgres.Validate(); err != nil {
			return nil, errors.Wrap(err, "invalid postgres config")
		}
	default:
		return nil, errors.Errorf("unsupported ledger backend: %s", parsed.LedgerBackend)
	}

	return parsed, nil
}

type stakingApp struct {
	log *logrus.Entry

	program *program.Program
	server  api.StakingServer

	closeLedger func() error

	shutdown   sync.Once
	shutdownCh chan struct{}
}

// Init implements app.App.Init
func (a *stakingApp) Init(config app.Config, _ *newrelic.Application) error {
	a.log = logrus.StandardLogger().WithField("type", "cmd/staking-server")
	a.shutdownCh = make(chan struct{})

	parsed, err := parseAppConfig(config)
	if err != nil {
		return err
	}

	programAccount, err := a.loadProgramAccount(parsed.ProgramPrivateKey)
	if err != nil {
		return err
	}

	store, closeLedger, err := openLedger(parsed)
	if err != nil {
		return err
	}
	a.closeLedger = closeLedger

	a.program = program.New(store, programAccount, time.Now)
	a.server = server.NewStakingServer(a.program, server.WithEnvConfigs())

	if _, err := a.program.GetConfig(context.Background()); err == ledger.ErrAccountNotFound {
		a.log.Info("staking config is not initialized yet")
	} else if err != nil {
		a.log.WithError(err).Warn("failure checking staking config")
	}

	a.log.WithFields(logrus.Fields{
		"program": a.program.Address(),
		"ledger":  parsed.LedgerBackend,
	}).Info("staking program initialized")
	return nil
}

// RegisterWithGRPC implements app.App.RegisterWithGRPC
func (a *stakingApp) RegisterWithGRPC(server *grpc.Server) {
	api.RegisterStakingServer(server, a.server)
}

// ShutdownChan implements app.App.ShutdownChan
func (a *stakingApp) ShutdownChan() <-chan struct{} {
	return a.shutdownCh
}

// Stop implements app.App.Stop
func (a *stakingApp) Stop() {
	a.shutdown.Do(func() {
		close(a.shutdownCh)

		if a.closeLedger == nil {
			return
		}
		if err := a.closeLedger(); err != nil {
			a.log.WithError(err).Warn("failure closing ledger")
		}
	})
}

func (a *stakingApp) loadProgramAccount(privateKey string) (*common.Account, error) {
	if len(privateKey) > 0 {
		programAccount, err := common.NewAccountFromPrivateKeyString(privateKey)
		if err != nil {
			return nil, errors.Wrap(err, "invalid program private key")
		}
		return programAccount, nil
	}

	programAccount, err := common.NewRandomAccount()
	if err != nil {
		return nil, errors.Wrap(err, "error generating program account")
	}

	a.log.WithField("program", programAccount.PublicKey().ToBase58()).Warn("program_private_key is not configured, using a random program account")
	return programAccount, nil
}

func openLedger(config *appConfig) (ledger.Store, func() error, error) {
	switch config.LedgerBackend {
	case leveldbBackend:
		db, err := leveldb_ledger.Open(config.LevelDBPath)
		if err != nil {
			return nil, nil, err
		}
		return leveldb_ledger.New(db), db.Close, nil
	case postgresBackend:
		db, err := pg.Open(config.Postgres)
		if err != nil {
			return nil, nil, errors.Wrap(err, "error connecting to postgres")
		}
		return postgres_ledger.New(db), db.Close, nil
	default:
		return memory_ledger.New(), func() error { return nil }, nil
	}
}
