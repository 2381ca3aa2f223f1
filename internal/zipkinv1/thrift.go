// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package zipkinv1 // import "github.com/open-telemetry/opentelemetry-collector-contrib/receiver/zipkinreceiver/internal/zipkinv1"

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"net"
	"strconv"
	"time"

	"github.com/apache/thrift/lib/go/thrift"
	"github.com/jaegertracing/jaeger-idl/thrift-gen/zipkincore"
	zipkinmodel "github.com/openzipkin/zipkin-go/model"
)

// ThriftToSpans decodes a TBinaryProtocol-encoded v1 span list into v2 span
// models, preserving payload order. A truncated or malformed frame fails
// the whole batch.
func ThriftToSpans(blob []byte) ([]*zipkinmodel.SpanModel, error) {
	ctx := context.Background()
	buffer := thrift.NewTMemoryBuffer()
	if _, err := buffer.Write(blob); err != nil {
		return nil, err
	}
	protocol := thrift.NewTBinaryProtocolConf(buffer, nil)

	// Zipkin v1 serializes the batch as a bare thrift list of Span structs,
	// not as a framed message.
	_, size, err := protocol.ReadListBegin(ctx)
	if err != nil {
		return nil, err
	}
	// Every encoded span takes at least one byte, so a list length larger
	// than the remaining payload cannot be valid. Checking up front keeps a
	// corrupt length from driving a huge allocation below.
	if uint64(size) > buffer.RemainingBytes() {
		return nil, fmt.Errorf("thrift span list length %d exceeds payload size", size)
	}
	spans := make([]*zipkinmodel.SpanModel, 0, size)
	for i := 0; i < size; i++ {
		zs := &zipkincore.Span{}
		if err := zs.Read(ctx, protocol); err != nil {
			return nil, err
		}
		spans = append(spans, thriftToSpanModel(zs))
	}
	return spans, nil
}

func thriftToSpanModel(zs *zipkincore.Span) *zipkinmodel.SpanModel {
	sm := &zipkinmodel.SpanModel{
		SpanContext: zipkinmodel.SpanContext{
			TraceID: zipkinmodel.TraceID{Low: uint64(zs.TraceID)},
			ID:      zipkinmodel.ID(zs.ID),
			Debug:   zs.Debug,
		},
		Name: zs.Name,
	}
	if zs.TraceIDHigh != nil {
		sm.TraceID.High = uint64(*zs.TraceIDHigh)
	}
	if zs.ParentID != nil && *zs.ParentID != 0 {
		parentID := zipkinmodel.ID(*zs.ParentID)
		sm.ParentID = &parentID
	}
	if zs.Timestamp != nil {
		sm.Timestamp = epochMicros(*zs.Timestamp)
	}
	if zs.Duration != nil {
		sm.Duration = time.Duration(*zs.Duration) * time.Microsecond
	}

	core := &coreAnnotations{}
	for _, ann := range zs.Annotations {
		if ann == nil {
			continue
		}
		if core.observe(ann.Value, ann.Timestamp, thriftEndpoint(ann.Host)) {
			continue
		}
		sm.Annotations = append(sm.Annotations, zipkinmodel.Annotation{
			Timestamp: epochMicros(ann.Timestamp),
			Value:     ann.Value,
		})
	}
	for _, ba := range zs.BinaryAnnotations {
		if ba == nil || ba.Key == "" {
			continue
		}
		if isAddressAnnotation(ba.Key) {
			if sm.RemoteEndpoint == nil {
				sm.RemoteEndpoint = thriftEndpoint(ba.Host)
			}
			continue
		}
		putTag(sm, ba.Key, thriftTagValue(ba.Value, ba.AnnotationType))
		if core.local == nil {
			core.local = thriftEndpoint(ba.Host)
		}
	}
	core.apply(sm, zs.Timestamp != nil)
	return sm
}

func thriftEndpoint(h *zipkincore.Endpoint) *zipkinmodel.Endpoint {
	if h == nil {
		return nil
	}
	ep := &zipkinmodel.Endpoint{
		ServiceName: h.ServiceName,
		Port:        uint16(h.Port),
	}
	if h.Ipv4 != 0 {
		ipv4 := make(net.IP, 4)
		binary.BigEndian.PutUint32(ipv4, uint32(h.Ipv4))
		ep.IPv4 = ipv4
	}
	if len(h.Ipv6) == net.IPv6len {
		ep.IPv6 = net.IP(h.Ipv6)
	}
	if ep.ServiceName == "" && ep.IPv4 == nil && ep.IPv6 == nil && ep.Port == 0 {
		return nil
	}
	return ep
}

// thriftTagValue renders a typed binary annotation value as a string tag.
// Values with a size not matching their declared type fall through to a raw
// string rendering rather than failing the span.
func thriftTagValue(v []byte, annType zipkincore.AnnotationType) string {
	switch annType {
	case zipkincore.AnnotationType_BOOL:
		if len(v) == 1 {
			return strconv.FormatBool(v[0] == 1)
		}
	case zipkincore.AnnotationType_I16:
		if len(v) == 2 {
			return strconv.FormatInt(int64(int16(binary.BigEndian.Uint16(v))), 10)
		}
	case zipkincore.AnnotationType_I32:
		if len(v) == 4 {
			return strconv.FormatInt(int64(int32(binary.BigEndian.Uint32(v))), 10)
		}
	case zipkincore.AnnotationType_I64:
		if len(v) == 8 {
			return strconv.FormatInt(int64(binary.BigEndian.Uint64(v)), 10)
		}
	case zipkincore.AnnotationType_DOUBLE:
		if len(v) == 8 {
			return strconv.FormatFloat(math.Float64frombits(binary.BigEndian.Uint64(v)), 'f', -1, 64)
		}
	}
	return string(v)
}
