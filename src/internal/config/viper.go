package config

import (
	"strings"

	"github.com/spf13/viper"
)

// NewViper reads config.json from the working directory, with environment
// variables overriding file values (DATABASE_HOST overrides database.host).
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath("./")
	v.AddConfigPath("./../")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A missing file is fine; defaults and env cover local runs.
	_ = v.ReadInConfig()

	return v
}
