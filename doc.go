// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

//go:generate mdatagen metadata.yaml

// Package zipkinreceiver receives Zipkin spans over HTTP in the v1 and v2
// wire formats, applies a deterministic per-trace sampling decision, and
// forwards admitted spans to the next consumer.
package zipkinreceiver // import "github.com/open-telemetry/opentelemetry-collector-contrib/receiver/zipkinreceiver"
