// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package zipkinv1 // import "github.com/open-telemetry/opentelemetry-collector-contrib/receiver/zipkinreceiver/internal/zipkinv1"

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	zipkinmodel "github.com/openzipkin/zipkin-go/model"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	errMissingTraceID = errors.New("v1 span is missing a traceId")
	errMissingSpanID  = errors.New("v1 span is missing an id")
)

type endpoint struct {
	ServiceName string `json:"serviceName"`
	IPv4        string `json:"ipv4"`
	IPv6        string `json:"ipv6"`
	Port        int32  `json:"port"`
}

type annotation struct {
	Timestamp int64     `json:"timestamp"`
	Value     string    `json:"value"`
	Endpoint  *endpoint `json:"endpoint"`
}

type binaryAnnotation struct {
	Key      string    `json:"key"`
	Value    any       `json:"value"`
	Endpoint *endpoint `json:"endpoint"`
}

type span struct {
	TraceID           string              `json:"traceId"`
	Name              string              `json:"name"`
	ID                string              `json:"id"`
	ParentID          string              `json:"parentId"`
	Timestamp         int64               `json:"timestamp"`
	Duration          int64               `json:"duration"`
	Debug             bool                `json:"debug"`
	Annotations       []*annotation       `json:"annotations"`
	BinaryAnnotations []*binaryAnnotation `json:"binaryAnnotations"`
}

// JSONToSpans decodes a v1 JSON span list into v2 span models, preserving
// payload order. Any invalid span fails the whole batch.
func JSONToSpans(blob []byte) ([]*zipkinmodel.SpanModel, error) {
	var v1Spans []*span
	if err := jsonCodec.Unmarshal(blob, &v1Spans); err != nil {
		return nil, err
	}
	spans := make([]*zipkinmodel.SpanModel, 0, len(v1Spans))
	for _, v1Span := range v1Spans {
		if v1Span == nil {
			continue
		}
		sm, err := v1Span.toSpanModel()
		if err != nil {
			return nil, err
		}
		spans = append(spans, sm)
	}
	return spans, nil
}

func (s *span) toSpanModel() (*zipkinmodel.SpanModel, error) {
	if s.TraceID == "" {
		return nil, errMissingTraceID
	}
	traceID, err := zipkinmodel.TraceIDFromHex(s.TraceID)
	if err != nil {
		return nil, fmt.Errorf("invalid traceId %q: %w", s.TraceID, err)
	}
	if s.ID == "" {
		return nil, errMissingSpanID
	}
	id, err := parseID(s.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q: %w", s.ID, err)
	}

	sm := &zipkinmodel.SpanModel{
		SpanContext: zipkinmodel.SpanContext{
			TraceID: traceID,
			ID:      id,
			Debug:   s.Debug,
		},
		Name: s.Name,
	}
	if s.ParentID != "" {
		parentID, err := parseID(s.ParentID)
		if err != nil {
			return nil, fmt.Errorf("invalid parentId %q: %w", s.ParentID, err)
		}
		sm.ParentID = &parentID
	}
	if s.Timestamp != 0 {
		sm.Timestamp = epochMicros(s.Timestamp)
	}
	if s.Duration != 0 {
		sm.Duration = time.Duration(s.Duration) * time.Microsecond
	}

	core := &coreAnnotations{}
	for _, ann := range s.Annotations {
		if ann == nil {
			continue
		}
		if core.observe(ann.Value, ann.Timestamp, ann.Endpoint.toModel()) {
			continue
		}
		sm.Annotations = append(sm.Annotations, zipkinmodel.Annotation{
			Timestamp: epochMicros(ann.Timestamp),
			Value:     ann.Value,
		})
	}
	for _, ba := range s.BinaryAnnotations {
		if ba == nil || ba.Key == "" {
			continue
		}
		if isAddressAnnotation(ba.Key) {
			if sm.RemoteEndpoint == nil {
				sm.RemoteEndpoint = ba.Endpoint.toModel()
			}
			continue
		}
		putTag(sm, ba.Key, jsonTagValue(ba.Value))
		if core.local == nil {
			core.local = ba.Endpoint.toModel()
		}
	}
	core.apply(sm, s.Timestamp != 0)
	return sm, nil
}

func parseID(h string) (zipkinmodel.ID, error) {
	v, err := strconv.ParseUint(h, 16, 64)
	if err != nil {
		return 0, err
	}
	return zipkinmodel.ID(v), nil
}

func (e *endpoint) toModel() *zipkinmodel.Endpoint {
	if e == nil {
		return nil
	}
	if e.ServiceName == "" && e.IPv4 == "" && e.IPv6 == "" && e.Port == 0 {
		return nil
	}
	return &zipkinmodel.Endpoint{
		ServiceName: e.ServiceName,
		IPv4:        net.ParseIP(e.IPv4),
		IPv6:        net.ParseIP(e.IPv6),
		Port:        uint16(e.Port),
	}
}

// jsonTagValue renders a binary annotation value as a string tag. v1 JSON
// allows any scalar type here.
func jsonTagValue(v any) string {
	switch tv := v.(type) {
	case string:
		return tv
	case bool:
		return strconv.FormatBool(tv)
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", tv)
	}
}
