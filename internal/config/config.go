package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	defaultLocalPort    = ":8077"
	defaultDatabaseName = "sentinel"

	defaultRequestTimeout = 10 * time.Second

	// deadline window bounds applied when the agent stamps a proposal
	defaultMinDeadlineOffset = time.Minute
	defaultMaxDeadlineOffset = 24 * time.Hour
)

func init() {
	viper.AutomaticEnv()
}

// GetPort returns the listen port prepended with `:`.
func GetPort() string {
	port := viper.GetString("PORT")
	if port == "" {
		return defaultLocalPort
	}
	return ":" + port
}

// GetDbConnectionURI returns the Mongo connection string; empty means run
// on in-memory stores only.
func GetDbConnectionURI() string {
	return viper.GetString("DB_URI")
}

func GetDatabaseName() string {
	name := viper.GetString("DB_NAME")
	if name == "" {
		return defaultDatabaseName
	}
	return name
}

func GetRequestTimeout() time.Duration {
	timeout := viper.GetDuration("REQ_TIMEOUT")
	if timeout == 0 {
		return defaultRequestTimeout
	}
	return timeout
}

// GetMinDeadlineOffset returns the lower bound of the proposal deadline
// window; offsets below it are clipped at proposal creation.
func GetMinDeadlineOffset() time.Duration {
	offset := viper.GetDuration("MIN_DEADLINE_OFFSET")
	if offset == 0 {
		return defaultMinDeadlineOffset
	}
	return offset
}

// GetMaxDeadlineOffset returns the upper bound of the proposal deadline
// window; it is also re-checked at verification time to reject absurdly
// long-lived proposals.
func GetMaxDeadlineOffset() time.Duration {
	offset := viper.GetDuration("MAX_DEADLINE_OFFSET")
	if offset == 0 {
		return defaultMaxDeadlineOffset
	}
	return offset
}

// GetPolicySeedFile returns the path of the YAML file with the initial
// vault policies, empty if no seeding is wanted.
func GetPolicySeedFile() string {
	return viper.GetString("POLICY_SEED_FILE")
}

// GetAuthDisabled reports whether the admin JWT check is switched off.
// Meant for local demo runs only.
func GetAuthDisabled() bool {
	return viper.GetBool("DISABLE_AUTH")
}

func GetAuthIssuer() string {
	return viper.GetString("AUTH_ISSUER")
}

func GetAuthAudience() string {
	return viper.GetString("AUTH_AUDIENCE")
}
