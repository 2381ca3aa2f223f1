// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package zipkinv1

import (
	"context"
	"encoding/binary"
	"testing"
	"time"

	"github.com/apache/thrift/lib/go/thrift"
	"github.com/jaegertracing/jaeger-idl/thrift-gen/zipkincore"
	zipkinmodel "github.com/openzipkin/zipkin-go/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serializeSpans(t *testing.T, spans []*zipkincore.Span) []byte {
	ctx := context.Background()
	buffer := thrift.NewTMemoryBuffer()
	protocol := thrift.NewTBinaryProtocolConf(buffer, nil)
	require.NoError(t, protocol.WriteListBegin(ctx, thrift.STRUCT, len(spans)))
	for _, span := range spans {
		require.NoError(t, span.Write(ctx, protocol))
	}
	require.NoError(t, protocol.WriteListEnd(ctx))
	return buffer.Bytes()
}

func i64ptr(v int64) *int64 { return &v }

func TestThriftToSpansRoundTrip(t *testing.T) {
	ts := int64(1472470996199000)
	i32Value := make([]byte, 4)
	binary.BigEndian.PutUint32(i32Value, 500)

	blob := serializeSpans(t, []*zipkincore.Span{{
		TraceID:     0x48485a3953bb6124,
		TraceIDHigh: i64ptr(0x463ac35c9f6413ad),
		ID:          0x1234,
		ParentID:    i64ptr(0x5678),
		Name:        "get /api",
		Debug:       true,
		Timestamp:   &ts,
		Duration:    i64ptr(207000),
		Annotations: []*zipkincore.Annotation{
			{
				Timestamp: ts,
				Value:     zipkincore.SERVER_RECV,
				Host:      &zipkincore.Endpoint{ServiceName: "backend", Ipv4: 0x7f000001, Port: 8080},
			},
			{Timestamp: ts + 1000, Value: "custom"},
		},
		BinaryAnnotations: []*zipkincore.BinaryAnnotation{
			{
				Key:            zipkincore.CLIENT_ADDR,
				Value:          []byte{1},
				AnnotationType: zipkincore.AnnotationType_BOOL,
				Host:           &zipkincore.Endpoint{ServiceName: "frontend"},
			},
			{Key: "http.path", Value: []byte("/api"), AnnotationType: zipkincore.AnnotationType_STRING},
			{Key: "http.status_code", Value: i32Value, AnnotationType: zipkincore.AnnotationType_I32},
		},
	}})

	spans, err := ThriftToSpans(blob)
	require.NoError(t, err)
	require.Len(t, spans, 1)

	sm := spans[0]
	assert.Equal(t, uint64(0x463ac35c9f6413ad), sm.TraceID.High)
	assert.Equal(t, uint64(0x48485a3953bb6124), sm.TraceID.Low)
	assert.Equal(t, zipkinmodel.ID(0x1234), sm.ID)
	require.NotNil(t, sm.ParentID)
	assert.Equal(t, zipkinmodel.ID(0x5678), *sm.ParentID)
	assert.Equal(t, "get /api", sm.Name)
	assert.True(t, sm.Debug)
	assert.Equal(t, zipkinmodel.Server, sm.Kind)
	assert.False(t, sm.Shared, "explicit timestamp means the span is not shared")
	assert.Equal(t, time.UnixMicro(ts).UTC(), sm.Timestamp)
	assert.Equal(t, 207000*time.Microsecond, sm.Duration)

	require.NotNil(t, sm.LocalEndpoint)
	assert.Equal(t, "backend", sm.LocalEndpoint.ServiceName)
	assert.Equal(t, "127.0.0.1", sm.LocalEndpoint.IPv4.String())
	assert.Equal(t, uint16(8080), sm.LocalEndpoint.Port)
	require.NotNil(t, sm.RemoteEndpoint)
	assert.Equal(t, "frontend", sm.RemoteEndpoint.ServiceName)

	assert.Equal(t, map[string]string{
		"http.path":        "/api",
		"http.status_code": "500",
	}, sm.Tags)

	require.Len(t, sm.Annotations, 1)
	assert.Equal(t, "custom", sm.Annotations[0].Value)
}

func TestThriftToSpansEmptyList(t *testing.T) {
	blob := serializeSpans(t, nil)
	spans, err := ThriftToSpans(blob)
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestThriftToSpansTruncated(t *testing.T) {
	ts := int64(1472470996199000)
	blob := serializeSpans(t, []*zipkincore.Span{{
		TraceID:   100,
		ID:        200,
		Name:      "rpc",
		Timestamp: &ts,
	}})

	_, err := ThriftToSpans(blob[:len(blob)/2])
	assert.Error(t, err)
}

func TestThriftToSpansGarbage(t *testing.T) {
	_, err := ThriftToSpans([]byte("definitely not thrift"))
	assert.Error(t, err)
}

func TestThriftTagValue(t *testing.T) {
	i64Value := make([]byte, 8)
	binary.BigEndian.PutUint64(i64Value, uint64(123456789))

	assert.Equal(t, "/api", thriftTagValue([]byte("/api"), zipkincore.AnnotationType_STRING))
	assert.Equal(t, "true", thriftTagValue([]byte{1}, zipkincore.AnnotationType_BOOL))
	assert.Equal(t, "false", thriftTagValue([]byte{0}, zipkincore.AnnotationType_BOOL))
	assert.Equal(t, "123456789", thriftTagValue(i64Value, zipkincore.AnnotationType_I64))
	// Mis-sized values fall back to the raw rendering instead of failing.
	assert.Equal(t, "xy", thriftTagValue([]byte("xy"), zipkincore.AnnotationType_I64))
}
