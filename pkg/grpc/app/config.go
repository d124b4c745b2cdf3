package app

import (
	"time"

	"github.com/spf13/viper"
)

// Config is the application specific configuration passed to App.Init.
// Applications decode it with mapstructure.
type Config map[string]interface{}

// BaseConfig contains the process configuration, as well as the application's
// own section.
type BaseConfig struct {
	LogLevel string `mapstructure:"log_level"`

	AppName string `mapstructure:"app_name"`

	ListenAddress         string `mapstructure:"listen_address"`
	InsecureListenAddress string `mapstructure:"insecure_listen_address"`
	DebugListenAddress    string `mapstructure:"debug_listen_address"`

	// TLSCertificate and TLSKey are optional file URLs loaded with LoadFile.
	// The secure listener only runs when a certificate is configured.
	TLSCertificate string `mapstructure:"tls_certificate"`
	TLSKey         string `mapstructure:"tls_private_key"`

	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`

	EnablePprof      bool `mapstructure:"enable_pprof"`
	EnableExpvar     bool `mapstructure:"enable_expvar"`
	EnablePrometheus bool `mapstructure:"enable_prometheus"`

	// DisableRPCs rejects every RPC except health checks with
	// codes.Unavailable, for maintenance windows.
	DisableRPCs bool `mapstructure:"disable_rpcs"`

	// GC ballast, capped at 50% of the available memory.
	// https://blog.twitch.tv/en/2019/04/10/go-memory-ballast-how-i-learnt-to-stop-worrying-and-love-the-heap/
	EnableBallast   bool    `mapstructure:"enable_ballast"`
	BallastCapacity float32 `mapstructure:"ballast_capacity"`

	// Periodically restart the process on a cron schedule
	EnableRestartCron   bool   `mapstructure:"enable_restart_cron"`
	RestartCronSchedule string `mapstructure:"restart_cron_schedule"`

	NewRelicLicenseKey string `mapstructure:"new_relic_license_key"`

	AppConfig Config `mapstructure:"app"`
}

var defaultConfig = BaseConfig{
	LogLevel: "info",

	AppName: "staking-server",

	ListenAddress:         ":8085",
	InsecureListenAddress: "localhost:8086",
	DebugListenAddress:    ":8123",

	ShutdownGracePeriod: 30 * time.Second,

	EnablePprof:      true,
	EnableExpvar:     true,
	EnablePrometheus: true,

	EnableBallast:   false,
	BallastCapacity: 0.25,

	EnableRestartCron:   false,
	RestartCronSchedule: "0 5 * * *",
}

func init() {
	for key, env := range map[string]string{
		"log_level": "LOG_LEVEL",
		"app_name":  "APP_NAME",

		"listen_address":          "LISTEN_ADDRESS",
		"insecure_listen_address": "INSECURE_LISTEN_ADDRESS",
		"debug_listen_address":    "DEBUG_LISTEN_ADDRESS",

		"tls_certificate": "TLS_CERTIFICATE",
		"tls_private_key": "TLS_PRIVATE_KEY",

		"shutdown_grace_period": "SHUTDOWN_GRACE_PERIOD",

		"enable_pprof":      "ENABLE_PPROF",
		"enable_expvar":     "ENABLE_EXPVAR",
		"enable_prometheus": "ENABLE_PROMETHEUS",

		"disable_rpcs": "DISABLE_RPCS",

		"enable_ballast":   "ENABLE_BALLAST",
		"ballast_capacity": "BALLAST_CAPACITY",

		"enable_restart_cron":   "ENABLE_RESTART_CRON",
		"restart_cron_schedule": "RESTART_CRON_SCHEDULE",

		"new_relic_license_key": "NEW_RELIC_LICENSE_KEY",
	} {
		_ = viper.BindEnv(key, env)
	}
}
