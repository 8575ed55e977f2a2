package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Load reads service's config file (./config/{service}.yaml, falling back
// to the working directory) into out, with environment variable overrides
// bound the way the teacher's LoadAndWatch did: SERVICE_SECTION_KEY
// overrides section.key. Unlike LoadAndWatch, Load does not install an
// fsnotify watch — a benchmark run's configuration is fixed for the
// duration of the process, so hot-reload has no caller to serve and would
// only be dead weight on the dependency graph.
//
// A missing config file is not an error: flags and environment variables
// alone are enough to drive a run, so this falls through to Unmarshal on
// whatever defaults out already carries.
func Load(service string, out interface{}) error {
	v := viper.New()
	v.SetConfigName(service)
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix(strings.ToUpper(service))
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
	} else {
		log.Printf("[%s] config loaded from %s", service, v.ConfigFileUsed())
	}

	return v.Unmarshal(out)
}
