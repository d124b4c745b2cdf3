package server

import (
	"time"

	"github.com/code-payments/staking-server/pkg/config"
	"github.com/code-payments/staking-server/pkg/config/env"
	"github.com/code-payments/staking-server/pkg/config/memory"
	"github.com/code-payments/staking-server/pkg/config/wrapper"
)

const (
	envConfigPrefix = "STAKING_SERVICE_"

	DisableClaimsConfigEnvName = envConfigPrefix + "DISABLE_CLAIMS"
	defaultDisableClaims       = false

	MaxRequestAgeConfigEnvName = envConfigPrefix + "MAX_REQUEST_AGE"
	defaultMaxRequestAge       = 2 * time.Minute

	// Instructions per second per signer, 0 disables limiting
	SignerRateLimitConfigEnvName = envConfigPrefix + "SIGNER_RATE_LIMIT"
	defaultSignerRateLimit       = 0

	// Serves Airdrop and MintNft, development deployments only
	EnableAirdropsConfigEnvName = envConfigPrefix + "ENABLE_AIRDROPS"
	defaultEnableAirdrops       = false
)

type conf struct {
	disableClaims   config.Bool
	maxRequestAge   config.Duration
	signerRateLimit config.Float64
	enableAirdrops  config.Bool
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			disableClaims:   env.NewBoolConfig(DisableClaimsConfigEnvName, defaultDisableClaims),
			maxRequestAge:   env.NewDurationConfig(MaxRequestAgeConfigEnvName, defaultMaxRequestAge),
			signerRateLimit: env.NewFloat64Config(SignerRateLimitConfigEnvName, defaultSignerRateLimit),
			enableAirdrops:  env.NewBoolConfig(EnableAirdropsConfigEnvName, defaultEnableAirdrops),
		}
	}
}

type testOverrides struct {
	disableClaims   bool
	maxRequestAge   time.Duration
	signerRateLimit float64
	enableAirdrops  bool
}

func withManualTestOverrides(overrides *testOverrides) ConfigProvider {
	maxRequestAge := defaultMaxRequestAge
	if overrides.maxRequestAge > 0 {
		maxRequestAge = overrides.maxRequestAge
	}

	return func() *conf {
		return &conf{
			disableClaims:   wrapper.NewBoolConfig(memory.NewConfig(overrides.disableClaims), defaultDisableClaims),
			maxRequestAge:   wrapper.NewDurationConfig(memory.NewConfig(maxRequestAge), defaultMaxRequestAge),
			signerRateLimit: wrapper.NewFloat64Config(memory.NewConfig(overrides.signerRateLimit), defaultSignerRateLimit),
			enableAirdrops:  wrapper.NewBoolConfig(memory.NewConfig(overrides.enableAirdrops), defaultEnableAirdrops),
		}
	}
}
