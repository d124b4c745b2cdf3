// Package app runs a long lived gRPC application: it loads process config,
// sets up logging and metrics, serves gRPC and debug HTTP, and coordinates
// shutdown.
package app

import (
	"crypto/tls"
	"expvar"
	"flag"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/health"
	healthgrpc "google.golang.org/grpc/health/grpc_health_v1"

	grpc_util "github.com/code-payments/staking-server/pkg/grpc"
	"github.com/code-payments/staking-server/pkg/grpc/metrics"
	"github.com/code-payments/staking-server/pkg/grpc/validation"
	metrics_util "github.com/code-payments/staking-server/pkg/metrics"
	"github.com/code-payments/staking-server/pkg/osutil"
)

// App is a long lived application that services gRPC requests.
//
// The lifecycle of the App is tied to the process. The app gets initialized
// before the gRPC server runs, and gets stopped after the gRPC server has
// stopped serving.
type App interface {
	// Init initializes the application in a blocking fashion. When Init
	// returns, the application is ready to receive requests.
	Init(config Config, metricsProvider *newrelic.Application) error

	// RegisterWithGRPC registers the application's gRPC services
	RegisterWithGRPC(server *grpc.Server)

	// ShutdownChan returns a channel that is closed when the application is
	// shutdown, which also initiates a gRPC server shutdown.
	ShutdownChan() <-chan struct{}

	// Stop stops the application, allowing it to clean up any resources. The
	// process exits when Stop returns. Stop must be idempotent.
	Stop()
}

var (
	configPath = flag.String("config", "config.yaml", "configuration file path")

	osSigCh = make(chan os.Signal, 1)
)

func init() {
	signal.Notify(osSigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
}

// Run runs app until the process is signalled, a server stops, or the app
// shuts down on its own.
func Run(app App, options ...Option) error {
	flag.Parse()

	log := logrus.StandardLogger().WithField("type", "grpc/app")

	config, err := loadConfig(*configPath)
	if err != nil {
		log.WithError(err).Error("failed to load config")
		os.Exit(1)
	}

	var metricsProvider *newrelic.Application
	if len(config.NewRelicLicenseKey) > 0 {
		metricsProvider, err = newrelic.NewApplication(
			newrelic.ConfigFromEnvironment(),
			newrelic.ConfigAppName(config.AppName),
			newrelic.ConfigLicense(config.NewRelicLicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.WithError(err).Error("error connecting to new relic")
			os.Exit(1)
		}
	}

	configureLogger(config, metricsProvider)

	// pprof and expvar install themselves on the default mux, which must not
	// be exposed publicly
	http.DefaultServeMux = http.NewServeMux()
	startDebugServer(log, config)

	var ballast []byte
	if config.EnableBallast {
		ballast = make([]byte, osutil.GetBallastSize(config.BallastCapacity))
	}

	restartCh := make(chan struct{})
	if config.EnableRestartCron {
		scheduler := cron.New(cron.WithLocation(time.Local))
		_, err = scheduler.AddFunc(config.RestartCronSchedule, func() {
			close(restartCh)
		})
		if err != nil {
			log.WithError(err).Error("failed to initialize restart cron")
			os.Exit(1)
		}
		scheduler.Start()
	}

	insecureLis, err := net.Listen("tcp", config.InsecureListenAddress)
	if err != nil {
		log.WithError(err).Errorf("failed to listen on %s", config.InsecureListenAddress)
		os.Exit(1)
	}

	var secureLis net.Listener
	var transportCreds credentials.TransportCredentials
	if config.TLSCertificate != "" {
		transportCreds, err = loadTransportCredentials(config)
		if err != nil {
			log.WithError(err).Error("failed to load tls credentials")
			os.Exit(1)
		}

		secureLis, err = net.Listen("tcp", config.ListenAddress)
		if err != nil {
			log.WithError(err).Errorf("failed to listen on %s", config.ListenAddress)
			os.Exit(1)
		}
	}

	o := defaultOpts(config, metricsProvider)
	for _, option := range options {
		option(&o)
	}

	if err := app.Init(config.AppConfig, metricsProvider); err != nil {
		log.WithError(err).Error("failed to initialize application")
		os.Exit(1)
	}

	var servers []*grpc.Server
	serverStoppedCh := make(chan struct{}, 2)
	serve := func(lis net.Listener, serverOpts ...grpc.ServerOption) {
		serverOpts = append(
			serverOpts,
			grpc_middleware.WithUnaryServerChain(o.unaryServerInterceptors...),
			grpc_middleware.WithStreamServerChain(o.streamServerInterceptors...),
		)
		server := grpc.NewServer(serverOpts...)
		app.RegisterWithGRPC(server)
		healthgrpc.RegisterHealthServer(server, health.NewServer())
		servers = append(servers, server)

		go func() {
			if err := server.Serve(lis); err != nil {
				log.WithError(err).WithField("address", lis.Addr().String()).Error("grpc serve stopped")
			} else {
				log.WithField("address", lis.Addr().String()).Info("grpc server stopped")
			}
			serverStoppedCh <- struct{}{}
		}()
	}

	if secureLis != nil {
		serve(secureLis, grpc.Creds(transportCreds))
	}
	serve(insecureLis)

	select {
	case <-osSigCh:
		log.Info("interrupt received, shutting down")
	case <-serverStoppedCh:
		log.Info("grpc server shutdown")
	case <-restartCh:
		log.Info("scheduled restart")
	case <-app.ShutdownChan():
		log.Info("app shutdown")
	}

	shutdownCh := make(chan struct{})
	go func() {
		for _, server := range servers {
			server.GracefulStop()
		}
		app.Stop()

		close(shutdownCh)
	}()

	select {
	case <-shutdownCh:
		// Keep the ballast reachable until shutdown
		if len(ballast) > 0 {
			ballast[0] = 1
		}
		return nil
	case <-time.After(config.ShutdownGracePeriod):
		return errors.Errorf("failed to stop the application within %v", config.ShutdownGracePeriod)
	}
}

// loadConfig reads BaseConfig from the config file, when present, and the
// environment.
func loadConfig(path string) (BaseConfig, error) {
	// viper only reports ConfigFileNotFoundError when searching for a default
	// file, so a missing explicit file is checked here
	if _, err := os.Stat(path); err == nil {
		viper.SetConfigFile(path)
	} else if !os.IsNotExist(err) {
		return BaseConfig{}, errors.Wrap(err, "failed to check if config exists")
	}

	err := viper.ReadInConfig()
	if _, isConfigNotFound := err.(viper.ConfigFileNotFoundError); err != nil && !isConfigNotFound {
		return BaseConfig{}, errors.Wrap(err, "failed to read config")
	}

	config := defaultConfig
	if err := viper.Unmarshal(&config); err != nil {
		return BaseConfig{}, errors.Wrap(err, "failed to unmarshal config")
	}

	if len(config.AppName) == 0 {
		return BaseConfig{}, errors.New("must specify an application name")
	}
	if config.TLSCertificate != "" && config.TLSKey == "" {
		return BaseConfig{}, errors.New("tls key must be provided if certificate is specified")
	}
	return config, nil
}

func loadTransportCredentials(config BaseConfig) (credentials.TransportCredentials, error) {
	certBytes, err := LoadFile(config.TLSCertificate)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load tls certificate")
	}

	keyBytes, err := LoadFile(config.TLSKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load tls key")
	}

	cert, err := tls.X509KeyPair(certBytes, keyBytes)
	if err != nil {
		return nil, errors.Wrap(err, "invalid certificate/private key")
	}

	return credentials.NewServerTLSFromCert(&cert), nil
}

func startDebugServer(log *logrus.Entry, config BaseConfig) {
	mux := http.NewServeMux()
	if config.EnableExpvar {
		mux.Handle("/debug/vars", expvar.Handler())
	}
	if config.EnablePprof {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	if config.EnablePrometheus {
		mux.Handle("/metrics", promhttp.Handler())
	}

	if !config.EnableExpvar && !config.EnablePprof && !config.EnablePrometheus {
		return
	}

	go func() {
		for {
			if err := http.ListenAndServe(config.DebugListenAddress, mux); err != nil {
				log.WithError(err).Warn("debug http server failed, retrying in 5s")
			}
			time.Sleep(5 * time.Second)
		}
	}()
}

// defaultOpts builds the default interceptor chains. Panic recovery wraps
// everything, and metrics interceptors come before any that reject requests.
func defaultOpts(config BaseConfig, metricsProvider *newrelic.Application) opts {
	recoverUnary, recoverStream := RecoveryInterceptors()

	o := opts{
		unaryServerInterceptors: []grpc.UnaryServerInterceptor{
			recoverUnary,
			metrics.CustomNewRelicUnaryServerInterceptor(metricsProvider),
			metrics.PrometheusUnaryServerInterceptor(),
		},
		streamServerInterceptors: []grpc.StreamServerInterceptor{
			recoverStream,
			metrics.CustomNewRelicStreamServerInterceptor(metricsProvider),
		},
	}

	if config.DisableRPCs {
		o.unaryServerInterceptors = append(o.unaryServerInterceptors, grpc_util.UnavailableUnaryServerInterceptor())
		o.streamServerInterceptors = append(o.streamServerInterceptors, grpc_util.UnavailableStreamServerInterceptor())
	}

	o.unaryServerInterceptors = append(o.unaryServerInterceptors, validation.UnaryServerInterceptor())
	o.streamServerInterceptors = append(o.streamServerInterceptors, validation.StreamServerInterceptor())
	return o
}

func configureLogger(config BaseConfig, metricsProvider *newrelic.Application) {
	if metricsProvider != nil {
		logrus.SetFormatter(metrics_util.NewNewRelicLogFormatter(metricsProvider, &logrus.JSONFormatter{}))
	} else {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(strings.ToLower(config.LogLevel))
	if err != nil {
		logrus.StandardLogger().WithField("log_level", config.LogLevel).Warn("unknown log level, ignoring")
	} else {
		logrus.SetLevel(level)
	}

	logrus.SetOutput(os.Stdout)
}
