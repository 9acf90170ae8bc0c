package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. BROKER_PORT overrides port.
const EnvPrefix = "BROKER"

// Load reads a Java-style .properties file. Environment variables named
// BROKER_<KEY> (dots replaced by underscores, upper-cased) override values
// found in the file. Viper nests dotted keys, so no key may be a prefix
// of another (metrics.topic and metrics.topic.x cannot coexist).
func Load(path string) (*Properties, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("properties")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read properties %s: %w", path, err)
	}

	props := NewProperties(nil)
	for _, key := range v.AllKeys() {
		props.Set(key, v.GetString(key))
	}
	return props, nil
}
