package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const (
	envFlagName    = "env"
	defaultEnvFile = ".env"
)

var (
	envFilePath string
	resolveOnce sync.Once
)

func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New loads the optional env file (the -env flag, else ./.env) into the
// process environment and then fills T from variables under prefix.
func New[T any](prefix string) (*T, error) {
	return load[T](prefix, resolveEnvPath())
}

func load[T any](prefix, envFile string) (*T, error) {
	if envFile != "" {
		if err := exportEnvironment(envFile); err != nil {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	} else if err := exportEnvironmentIfExists(defaultEnvFile); err != nil {
		return nil, fmt.Errorf("failed to load default env file: %w", err)
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, fmt.Errorf("process %s config: %w", strings.ToUpper(prefix), err)
	}
	return &conf, nil
}

// resolveEnvPath reads -env straight from os.Args. Config loads from init
// functions, before main has declared and parsed its own flags, so the flag
// set is only told about -env and never parsed here.
func resolveEnvPath() string {
	resolveOnce.Do(func() {
		if flag.Lookup(envFlagName) == nil {
			flag.String(envFlagName, "", "path to .env file")
		}
		envFilePath = envPathFromArgs(os.Args[1:])
	})
	return envFilePath
}

func envPathFromArgs(args []string) string {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}
		name := strings.TrimLeft(arg, "-")
		if name == arg {
			continue
		}
		if value, ok := strings.CutPrefix(name, envFlagName+"="); ok {
			return strings.TrimSpace(value)
		}
		if name == envFlagName && i+1 < len(args) {
			return strings.TrimSpace(args[i+1])
		}
	}
	return ""
}

func exportEnvironmentIfExists(filepath string) error {
	info, err := os.Stat(filepath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return exportEnvironment(filepath)
}

// exportEnvironment copies the file's settings into the environment. Values
// already set in the environment win over the file.
func exportEnvironment(filepath string) error {
	v := viper.New()
	v.SetConfigFile(filepath)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for k, val := range v.AllSettings() {
		key := strings.ToUpper(k)
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return err
		}
	}
	return nil
}
