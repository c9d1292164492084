package conf

/*
   This package wraps viper, a package designed to handle config files, for
   the datasynth library. Configuration is read once, from an env file when
   one is present, and falls back to the process environment otherwise.

   Assumptions:
   1. The configuration file is an env file (datasynth.env)
   2. The configuration file, once it is made available to the library,
   will stay immutable during the uptime of the process (exception is test)
*/

import (
	"os"
	"testing"

	"github.com/spf13/viper"
)

// An instance of the viper struct containing the conf information. Only made
// accessible through public functions GetEnv, SetEnv, etc.
var envVars viper.Viper

const (
	configgood    uint8 = 0
	configbad     uint8 = 1
	noconfigfound uint8 = 2
)

var state uint8 = configgood

// setup is the private helper that configures viper. Called by init() once
// during initialization of the package.
func setup(dir string) *viper.Viper {
	var v = viper.New()
	v.SetConfigName("datasynth")
	v.SetConfigType("env")
	v.AddConfigPath(dir)
	// Viper is lazy, do the read and parse of the config file
	if err := v.ReadInConfig(); err != nil {
		state = configbad
	}

	return v
}

func init() {
	// Possible config file locations: an explicit override first, then the
	// working directory of the embedding process.
	var locations = []string{
		os.Getenv("DATASYNTH_CONF_DIR"),
		".",
	}

	if success, loc := findEnv(locations); success {
		envVars = *setup(loc)
	} else {
		state = noconfigfound
	}
}

// findEnv walks the candidate locations and reports the first one holding a
// datasynth.env file. If none is found the library runs off the process
// environment alone.
func findEnv(locations []string) (bool, string) {
	for _, loc := range locations {
		if loc == "" {
			continue
		}
		if _, err := os.Stat(loc + "/datasynth.env"); err == nil {
			return true, loc
		}
	}
	return false, ""
}

// GetEnv retrieves the value stored in conf. If it does not exist,
// "" empty string is returned.
func GetEnv(key string) string {
	if state == configgood {
		var value = envVars.GetString(key)

		// Even if the config file loaded, if the key doesn't exist in conf,
		// try the environment.
		if value == "" {
			var b bool
			value, b = os.LookupEnv(key)
			if b {
				// Copy it over to conf to prevent additional OS calls.
				test := &testing.T{}
				var _ = SetEnv(test, key, value)
			}
		}

		return value
	}

	return os.Getenv(key)
}

// LookupEnv augments os.LookupEnv to look in the viper struct first.
func LookupEnv(key string) (string, bool) {
	if state == configgood {
		if value := envVars.Get(key); value != nil && value != "" {
			return value.(string), true
		}
		if v, exist := os.LookupEnv(key); exist {
			test := &testing.T{}
			var _ = SetEnv(test, key, v)
			return v, exist
		}

		return "", false
	}

	return os.LookupEnv(key)
}

// SetEnv adds key values into conf. This function should only be used either
// in this package itself or testing. Protect parameter is type *testing.T,
// and is there to ensure developers knowingly use it in the appropriate scope.
func SetEnv(protect *testing.T, key string, value string) error {
	var err error

	if state == configgood {
		envVars.Set(key, value)
	} else {
		err = os.Setenv(key, value)
	}

	return err
}

// UnsetEnv "unsets" a variable. Like SetEnv, this should only be used either
// in this package itself or testing.
func UnsetEnv(protect *testing.T, key string) error {
	if state == configgood {
		envVars.Set(key, "")
	}

	// The variable may have been copied into conf from the environment by
	// GetEnv, so clear both.
	return os.Unsetenv(key)
}
