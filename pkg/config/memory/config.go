// Package memory provides a settable in memory config source for tests.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/code-payments/staking-server/pkg/config"
)

var errDeveloperInduced = errors.New("in memory config: developer induced error")

// Config is an in memory config.Config. A nil value means no value is set.
type Config struct {
	mu       sync.RWMutex
	value    interface{}
	induced  bool
	shutdown bool
}

func NewConfig(value interface{}) *Config {
	return &Config{value: value}
}

// Get implements config.Config.Get
func (c *Config) Get(_ context.Context) (interface{}, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.shutdown:
		return nil, config.ErrShutdown
	case c.induced:
		return nil, errDeveloperInduced
	case c.value == nil:
		return nil, config.ErrNoValue
	}
	return c.value, nil
}

// Shutdown implements config.Config.Shutdown
func (c *Config) Shutdown() {
	c.mu.Lock()
	c.shutdown = true
	c.mu.Unlock()
}

func (c *Config) SetValue(value interface{}) {
	c.mu.Lock()
	c.value = value
	c.mu.Unlock()
}

func (c *Config) ClearValue() {
	c.SetValue(nil)
}

// InduceErrors fails subsequent Get calls until StopInducingErrors
func (c *Config) InduceErrors() {
	c.setInduced(true)
}

func (c *Config) StopInducingErrors() {
	c.setInduced(false)
}

func (c *Config) setInduced(induced bool) {
	c.mu.Lock()
	c.induced = induced
	c.mu.Unlock()
}
