// Package search indexes validated summaries into Elasticsearch and
// serves full-text queries over them.
package search

import (
	"os"

	"github.com/elastic/go-elasticsearch/v8"
)

type Config struct {
	Addresses []string
	IndexName string
	Username  string
	Password  string
}

func LoadConfigFromEnv() Config {
	addr := os.Getenv("ES_ADDR")
	if addr == "" {
		addr = "http://localhost:9200"
	}
	index := os.Getenv("ES_INDEX")
	if index == "" {
		index = "summaries"
	}
	return Config{
		Addresses: []string{addr},
		IndexName: index,
		Username:  os.Getenv("ES_USERNAME"),
		Password:  os.Getenv("ES_PASSWORD"),
	}
}

func newClient(config Config) (*elasticsearch.TypedClient, error) {
	cfg := elasticsearch.Config{
		Addresses: config.Addresses,
	}

	if config.Username != "" && config.Password != "" {
		cfg.Username = config.Username
		cfg.Password = config.Password
	}

	return elasticsearch.NewTypedClient(cfg)
}
