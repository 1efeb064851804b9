package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/mealqr/console/internal/flagx"
)

// jsonConfig is a DTO used exclusively for JSON unmarshalling. Durations
// are strings in time.ParseDuration notation ("15s", "300ms").
type jsonConfig struct {
	ServerAddr     string `json:"server_addr"`
	DataDir        string `json:"data_dir"`
	RequestTimeout string `json:"request_timeout"`
	SearchDebounce string `json:"search_debounce"`
}

// parseJSON overlays Config with values loaded from the JSON file named by
// the -c/-config flags. Absent file path means nothing to do; read or
// unmarshal failures panic (caller may recover).
func parseJSON(cfg *Config) {
	path := flagx.JSONConfigFlags()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerAddr != "" {
		cfg.ServerAddr = jc.ServerAddr
	}
	if jc.DataDir != "" {
		cfg.DataDir = jc.DataDir
	}
	if jc.RequestTimeout != "" {
		if d, err := time.ParseDuration(jc.RequestTimeout); err == nil {
			cfg.RequestTimeout = d
		}
	}
	if jc.SearchDebounce != "" {
		if d, err := time.ParseDuration(jc.SearchDebounce); err == nil {
			cfg.SearchDebounce = d
		}
	}
}
