package config

import (
	"fmt"
)

// HostConfig holds the flags of the broker-metrics host binary.
type HostConfig struct {
	PropertiesPath string
	HTTPPort       string
	RedisAddr      string
}

// Validate checks that all required configuration fields are set.
// RedisAddr is optional; without it snapshots are not served.
func (c *HostConfig) Validate() error {
	if c.PropertiesPath == "" {
		return fmt.Errorf("config cannot be empty")
	}
	if c.HTTPPort == "" {
		return fmt.Errorf("http-port cannot be empty")
	}
	return nil
}

// TailConfig holds the flags of the metrics-tail binary.
type TailConfig struct {
	KafkaBrokers string
	Topic        string
	GroupID      string
	Reporter     string
}

// Validate checks that all required configuration fields are set.
func (c *TailConfig) Validate() error {
	if c.KafkaBrokers == "" {
		return fmt.Errorf("kafka-brokers cannot be empty")
	}
	if c.Topic == "" {
		return fmt.Errorf("topic cannot be empty")
	}
	return nil
}
