package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Environment variable prefix for configuration, e.g. ROLLDOWN_DIR
const envPrefix = "ROLLDOWN"

// The config file that is used when none is given, looked up in the
// working directory
const DefaultConfigName = "rolldown"

// File is the on-disk and environment form of the configuration
type File struct {
	Cwd            string `mapstructure:"cwd"`
	Dir            string `mapstructure:"dir"`
	Manifest       string `mapstructure:"manifest"`
	Sourcemap      string `mapstructure:"sourcemap"`
	SourcesContent bool   `mapstructure:"sourcesContent"`
	Banner         string `mapstructure:"banner"`
	Footer         string `mapstructure:"footer"`
	Concurrency    int    `mapstructure:"concurrency"`
	LogLevel       string `mapstructure:"logLevel"`
}

// Loader handles loading and merging configuration from defaults, a YAML
// file, environment variables and command-line flags, in increasing order
// of precedence.
type Loader struct {
	v *viper.Viper
}

func NewLoader() *Loader {
	v := viper.New()

	v.SetDefault("dir", "dist")
	v.SetDefault("manifest", "rolldown.manifest.yaml")
	v.SetDefault("sourcemap", "none")
	v.SetDefault("sourcesContent", true)
	v.SetDefault("concurrency", 0)
	v.SetDefault("logLevel", "info")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Camel-cased keys don't map onto environment variables automatically
	_ = v.BindEnv("sourcesContent", "ROLLDOWN_SOURCES_CONTENT")
	_ = v.BindEnv("logLevel", "ROLLDOWN_LOG_LEVEL")

	return &Loader{v: v}
}

// BindFlags makes explicitly-set flags override every other source. Each
// key is bound to the flag with the kebab-cased name, so "logLevel" is set
// by "--log-level".
func (l *Loader) BindFlags(flags *pflag.FlagSet, keys ...string) error {
	for _, key := range keys {
		name := flagName(key)
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("no flag named %q", name)
		}
		if err := l.v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("binding flag %q: %w", name, err)
		}
	}
	return nil
}

func flagName(key string) string {
	sb := strings.Builder{}
	for _, c := range key {
		if c >= 'A' && c <= 'Z' {
			sb.WriteByte('-')
			c += 'a' - 'A'
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

// Load reads the config file. An empty path searches for "rolldown.yaml" in
// searchDir, and a missing default file is not an error. A missing file that
// was asked for explicitly is.
func (l *Loader) Load(configFile string, searchDir string) (*File, error) {
	if configFile != "" {
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(DefaultConfigName)
		l.v.AddConfigPath(searchDir)
	}
	l.v.SetConfigType("yaml")

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var file File
	if err := l.v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	return &file, nil
}

// ConfigFileUsed returns the path of the file that was read, if any
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}
