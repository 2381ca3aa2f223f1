// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package zipkinreceiver // import "github.com/open-telemetry/opentelemetry-collector-contrib/receiver/zipkinreceiver"

import (
	"fmt"
	"math"

	zipkinmodel "github.com/openzipkin/zipkin-go/model"
)

// sampleRateFull is the sample_rate value admitting every trace.
const sampleRateFull = 10000

// traceSampler makes the per-trace admission decision. It is built once at
// startup and shared read-only across all requests.
type traceSampler struct {
	rate     int
	boundary int64
}

func newTraceSampler(rate int) (*traceSampler, error) {
	if rate < 0 || rate > sampleRateFull {
		return nil, fmt.Errorf("sample_rate must be in the range [0, %d], got %d", sampleRateFull, rate)
	}
	return &traceSampler{
		rate:     rate,
		boundary: sampleBoundary(rate),
	}, nil
}

// sampleBoundary returns floor(MaxInt64 * rate / 10000) in exact integer
// arithmetic, so every instance derives the same boundary.
func sampleBoundary(rate int) int64 {
	r := int64(rate)
	return math.MaxInt64/sampleRateFull*r + math.MaxInt64%sampleRateFull*r/sampleRateFull
}

// shouldSample is a pure function of the trace ID and the configured rate:
// every span of a trace, on every collector instance, gets the same verdict
// with no coordination. Only the lower 64 bits of the trace ID participate.
func (ts *traceSampler) shouldSample(traceID zipkinmodel.TraceID, debug bool) bool {
	if ts.rate == sampleRateFull {
		return true
	}
	if debug {
		return true
	}
	v := int64(traceID.Low)
	switch {
	case v == math.MinInt64:
		// abs(MinInt64) overflows, treat it as MaxInt64.
		v = math.MaxInt64
	case v < 0:
		v = -v
	}
	return v <= ts.boundary
}

// sampleSpans filters a decoded batch, keeping admitted spans in their
// original order. A span rejected by sampling is dropped silently, it is
// not an error and is not counted anywhere.
func (ts *traceSampler) sampleSpans(spans []*zipkinmodel.SpanModel) []*zipkinmodel.SpanModel {
	if ts.rate == sampleRateFull {
		return spans
	}
	sampled := make([]*zipkinmodel.SpanModel, 0, len(spans))
	for _, span := range spans {
		if span == nil {
			continue
		}
		if ts.shouldSample(span.TraceID, span.Debug) {
			sampled = append(sampled, span)
		}
	}
	return sampled
}
