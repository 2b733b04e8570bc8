package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/clipshare/internal/flagx"
	"github.com/dmitrijs2005/clipshare/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerURL           string         `json:"server_url"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	UploadTimeout       timex.Duration `json:"upload_timeout"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
}

// parseJson overlays Config with values from the JSON file named by -c or
// -config. Keys absent from the file keep their current value. Read and
// unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()
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

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.UploadTimeout, jc.UploadTimeout)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
}

func setDuration(dst *time.Duration, d timex.Duration) {
	if d.Duration != 0 {
		*dst = time.Duration(d.Duration)
	}
}
