package trigger

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
)

// ServiceURLs maps pipeline stages to their worker endpoints. It's
// injected at startup — no component holds a reference to another, and
// the pipeline DAG is expressed entirely by this wiring plus the
// routing table.
type ServiceURLs struct {
	Extractor struct {
		URL string `json:"url"`
	} `json:"extractor"`
	Cleaner struct {
		URL string `json:"url"`
	} `json:"cleaner"`
	Trigger struct {
		URL string `json:"url"`
	} `json:"trigger"`
	Loader struct {
		URL string `json:"url"`
	} `json:"loader"`
	LoaderParquet struct {
		URL string `json:"url"`
	} `json:"loader_parquet"`
}

// ParseServiceConfig decodes a base64-encoded JSON ServiceURLs blob,
// as carried by the SERVICE_CONFIG_B64 environment option.
func ParseServiceConfig(b64 string) (*ServiceURLs, error) {
	var decoded, err = base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, fmt.Errorf("decoding service config: %w", err)
	}

	var cfg ServiceURLs
	if err = json.Unmarshal(decoded, &cfg); err != nil {
		return nil, fmt.Errorf("parsing service config: %w", err)
	}
	return &cfg, nil
}

// LoadServiceConfig reads ServiceURLs from a JSON file (services.json).
func LoadServiceConfig(path string) (*ServiceURLs, error) {
	var data, err = os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading service config: %w", err)
	}

	var cfg ServiceURLs
	if err = json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing service config: %w", err)
	}
	return &cfg, nil
}
