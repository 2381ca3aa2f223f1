// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// Package zipkinv1 decodes legacy Zipkin v1 payloads, JSON and Thrift, into
// the v2 span model. Spans come out in payload order, and a syntactically
// invalid payload fails the whole batch.
package zipkinv1 // import "github.com/open-telemetry/opentelemetry-collector-contrib/receiver/zipkinreceiver/internal/zipkinv1"

import (
	"time"

	zipkinmodel "github.com/openzipkin/zipkin-go/model"
)

// Zipkin v1 core annotation values, which encode the span kind and the
// request/response bounds of an RPC.
const (
	clientSend  = "cs"
	clientRecv  = "cr"
	serverSend  = "ss"
	serverRecv  = "sr"
	messageSend = "ms"
	messageRecv = "mr"
)

// Zipkin v1 address annotation keys. Their endpoint is the span's peer,
// they never become tags.
const (
	clientAddr  = "ca"
	serverAddr  = "sa"
	messageAddr = "ma"
)

// coreAnnotations accumulates the v1 core-annotation state of one span
// while its annotations are walked.
type coreAnnotations struct {
	kind    zipkinmodel.Kind
	beginTS int64
	endTS   int64
	local   *zipkinmodel.Endpoint
}

// observe consumes one annotation if it is a core annotation and reports
// whether it was consumed.
func (c *coreAnnotations) observe(value string, timestampMicros int64, ep *zipkinmodel.Endpoint) bool {
	switch value {
	case clientSend, serverRecv, messageSend:
		c.setKind(kindOf(value))
		c.beginTS = timestampMicros
	case clientRecv, serverSend, messageRecv:
		c.setKind(kindOf(value))
		c.endTS = timestampMicros
	default:
		return false
	}
	if c.local == nil {
		c.local = ep
	}
	return true
}

func (c *coreAnnotations) setKind(k zipkinmodel.Kind) {
	if c.kind == zipkinmodel.Undetermined {
		c.kind = k
	}
}

// apply fills in the kind, endpoint and timing the span did not carry
// explicitly.
func (c *coreAnnotations) apply(sm *zipkinmodel.SpanModel, hasExplicitTimestamp bool) {
	if sm.Kind == zipkinmodel.Undetermined {
		sm.Kind = c.kind
	}
	if sm.LocalEndpoint == nil {
		sm.LocalEndpoint = c.local
	}
	if sm.Timestamp.IsZero() && c.beginTS != 0 {
		sm.Timestamp = epochMicros(c.beginTS)
	}
	if sm.Duration == 0 && c.beginTS != 0 && c.endTS > c.beginTS {
		sm.Duration = time.Duration(c.endTS-c.beginTS) * time.Microsecond
	}
	// The server half of an RPC reports sr/ss but no timestamp of its own.
	if sm.Kind == zipkinmodel.Server && !hasExplicitTimestamp && c.beginTS != 0 {
		sm.Shared = true
	}
}

func kindOf(value string) zipkinmodel.Kind {
	switch value {
	case clientSend, clientRecv:
		return zipkinmodel.Client
	case serverRecv, serverSend:
		return zipkinmodel.Server
	case messageSend:
		return zipkinmodel.Producer
	case messageRecv:
		return zipkinmodel.Consumer
	default:
		return zipkinmodel.Undetermined
	}
}

func isAddressAnnotation(key string) bool {
	return key == clientAddr || key == serverAddr || key == messageAddr
}

func putTag(sm *zipkinmodel.SpanModel, key, value string) {
	if sm.Tags == nil {
		sm.Tags = make(map[string]string)
	}
	sm.Tags[key] = value
}

func epochMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}
