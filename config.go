// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package zipkinreceiver // import "github.com/open-telemetry/opentelemetry-collector-contrib/receiver/zipkinreceiver"

import (
	"errors"
	"fmt"

	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/collector/config/confighttp"
)

// Config defines configuration for the Zipkin receiver.
type Config struct {
	// ServerConfig is used to set up the Zipkin span ingestion endpoint.
	confighttp.ServerConfig `mapstructure:",squash"`

	// If enabled the zipkin receiver will attempt to parse string tags and
	// binary annotations into int/bool/float.
	ParseStringTags bool `mapstructure:"parse_string_tags"`

	// SampleRate is the trace admission rate in parts per 10000. All spans
	// of a trace share one deterministic decision derived from the trace ID,
	// so independent collector instances agree without coordination. Spans
	// carrying the debug flag are always admitted. Defaults to 10000, which
	// keeps every span and skips the decision entirely.
	SampleRate int `mapstructure:"sample_rate"`
}

var _ component.Config = (*Config)(nil)

// Validate checks the receiver configuration is valid.
func (cfg *Config) Validate() error {
	if cfg.Endpoint == "" {
		return errors.New("must specify endpoint")
	}
	if cfg.SampleRate < 0 || cfg.SampleRate > sampleRateFull {
		return fmt.Errorf("sample_rate must be in the range [0, %d], got %d", sampleRateFull, cfg.SampleRate)
	}
	return nil
}
