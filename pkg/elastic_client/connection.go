package elastic_client

import (
	"crypto/tls"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/rs/zerolog/log"
	"github.com/travigo/connectivity/pkg/config"
)

var Client *elasticsearch.Client

// Connect sets up Client. Without an address the setup is skipped unless the
// caller requires it.
func Connect(cfg config.ElasticConfig, required bool) error {
	if cfg.Address == "" && !required {
		log.Info().Msg("Skipping Elasticsearch setup")
		return nil
	} else if cfg.Address == "" && required {
		return errors.New("elasticsearch address is not set")
	}

	// Naughty disable TLS verify on ES endpoint
	tp := http.DefaultTransport.(*http.Transport).Clone()
	if tp.TLSClientConfig == nil {
		tp.TLSClientConfig = &tls.Config{}
	}
	tp.TLSClientConfig.InsecureSkipVerify = true

	retryBackoff := backoff.NewExponentialBackOff()

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Address},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: tp,

		RetryOnStatus: []int{502, 503, 504, 429},

		RetryBackoff: func(i int) time.Duration {
			if i == 1 {
				retryBackoff.Reset()
			}
			return retryBackoff.NextBackOff()
		},
		MaxRetries: 5,
	})
	if err != nil {
		return err
	}

	res, err := es.Info()
	if err != nil {
		return err
	}
	res.Body.Close()

	Client = es

	log.Info().Msgf("Elasticsearch client setup for %s", cfg.Address)

	return nil
}
