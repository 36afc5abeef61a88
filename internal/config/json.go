package config

import (
	"encoding/json"
	"os"

	"github.com/roadlog/uplink/internal/flagx"
	"github.com/roadlog/uplink/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. It relies on
// timex.Duration so JSON can specify the timeout either as a string like
// "30s" or as integer nanoseconds.
type JsonConfig struct {
	CollectorURL      string         `json:"collector_url"`
	Username          string         `json:"username"`
	Password          string         `json:"password"`
	DatabasePath      string         `json:"database_path"`
	RequestTimeout    timex.Duration `json:"request_timeout"`
	UploadConcurrency int            `json:"upload_concurrency"`
}

// parseJson overlays Config with values loaded from a JSON file. The file
// path comes from the -c or -config flags via flagx.JsonConfigFlags; when
// neither is given, nothing is loaded. Empty JSON fields keep the value of
// the previous stage. Panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.CollectorURL != "" {
		cfg.CollectorURL = jc.CollectorURL
	}
	if jc.Username != "" {
		cfg.Username = jc.Username
	}
	if jc.Password != "" {
		cfg.Password = jc.Password
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.RequestTimeout.Duration != 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.UploadConcurrency != 0 {
		cfg.UploadConcurrency = jc.UploadConcurrency
	}
}
