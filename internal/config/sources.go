package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
)

// SettingSource represents where a setting's value comes from.
type SettingSource string

const (
	SourceEnv     SettingSource = "env"
	SourceConfig  SettingSource = "config"
	SourceDefault SettingSource = "default"
)

// SettingStatus describes one effective setting for the status command.
type SettingStatus struct {
	Key    string        `json:"key"`
	Value  string        `json:"value"`
	Source SettingSource `json:"source"`
	EnvVar string        `json:"env_var"`
}

// CheckSettings reports the effective value and origin of the main settings.
// fileKeys are the keys present in the config file, if any.
func CheckSettings(cfg *Config, fileKeys []string) []SettingStatus {
	inFile := make(map[string]bool, len(fileKeys))
	for _, k := range fileKeys {
		inFile[k] = true
	}
	check := func(key, value string) SettingStatus {
		st := SettingStatus{Key: key, Value: value, EnvVar: EnvVar(key), Source: SourceDefault}
		switch {
		case os.Getenv(st.EnvVar) != "":
			st.Source = SourceEnv
		case inFile[key]:
			st.Source = SourceConfig
		}
		return st
	}
	return []SettingStatus{
		check("chart.variant", cfg.Chart.Variant),
		check("data.source", maskURL(cfg.Data.Source)),
		check("api.port", strconv.Itoa(cfg.API.Port)),
		check("logging.level", cfg.Logging.Level),
		check("logging.format", cfg.Logging.Format),
	}
}

// FileKeys lists the dotted keys set in the config file at path.
func FileKeys(path string) []string {
	if path == "" {
		return nil
	}
	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil
	}
	// AllKeys includes defaults, so keep only what the file itself sets.
	var keys []string
	for _, k := range v.AllKeys() {
		if v.InConfig(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// EnvVar is the environment variable that overrides key.
func EnvVar(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// maskURL hides credentials embedded in a remote data source.
func maskURL(s string) string {
	u, err := url.Parse(s)
	if err != nil || u.User == nil {
		return s
	}
	u.User = url.User("***")
	return u.String()
}
