// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package zipkinreceiver // import "github.com/open-telemetry/opentelemetry-collector-contrib/receiver/zipkinreceiver"

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	jsoniter "github.com/json-iterator/go"
	zipkinmodel "github.com/openzipkin/zipkin-go/model"
	zipkinproto "github.com/openzipkin/zipkin-go/proto/zipkin_proto3"
	"go.opentelemetry.io/collector/component"
	"go.opentelemetry.io/collector/component/componentstatus"
	"go.opentelemetry.io/collector/consumer"
	"go.opentelemetry.io/collector/consumer/consumererror"
	"go.opentelemetry.io/collector/pdata/ptrace"
	"go.opentelemetry.io/collector/receiver"
	"go.opentelemetry.io/collector/receiver/receiverhelper"
	"go.uber.org/zap"

	"github.com/open-telemetry/opentelemetry-collector-contrib/pkg/translator/zipkin/zipkinv2"
	"github.com/open-telemetry/opentelemetry-collector-contrib/receiver/zipkinreceiver/internal/zipkinv1"
)

const (
	apiV1Path = "/api/v1/spans"
	apiV2Path = "/api/v2/spans"

	contentTypeJSON     = "application/json"
	contentTypeThrift   = "application/x-thrift"
	contentTypeProtobuf = "application/x-protobuf"

	transportV1JSON   = "http_v1_json"
	transportV1Thrift = "http_v1_thrift"
	transportV2JSON   = "http_v2_json"
	transportV2Proto  = "http_v2_proto"
)

var jsonCodec = jsoniter.ConfigCompatibleWithStandardLibrary

// spanDecoder converts one wire encoding into the in-memory span model.
// Decoding is synchronous, CPU-only, and all-or-nothing: a syntactically
// invalid payload yields an error and no spans.
type spanDecoder struct {
	// transport tags the per-protocol telemetry of requests using this
	// decoder.
	transport string
	// encoding names the wire format in decode errors.
	encoding string
	decode   func(blob []byte, debugWasSet bool) ([]*zipkinmodel.SpanModel, error)
}

// decoders statically binds every registered (route, content type) pair to
// exactly one decoder. The empty content type marks the route's default,
// used for unspecified or unrecognized content types, which mirrors the
// Zipkin server treating bodies as JSON unless declared otherwise.
var decoders = map[string]map[string]*spanDecoder{
	apiV1Path: {
		"":                jsonV1Decoder,
		contentTypeJSON:   jsonV1Decoder,
		contentTypeThrift: thriftV1Decoder,
	},
	apiV2Path: {
		"":                  jsonV2Decoder,
		contentTypeJSON:     jsonV2Decoder,
		contentTypeProtobuf: protobufV2Decoder,
	},
}

var (
	jsonV1Decoder = &spanDecoder{
		transport: transportV1JSON,
		encoding:  "json_v1",
		decode: func(blob []byte, _ bool) ([]*zipkinmodel.SpanModel, error) {
			return zipkinv1.JSONToSpans(blob)
		},
	}
	thriftV1Decoder = &spanDecoder{
		transport: transportV1Thrift,
		encoding:  "thrift_v1",
		decode: func(blob []byte, _ bool) ([]*zipkinmodel.SpanModel, error) {
			return zipkinv1.ThriftToSpans(blob)
		},
	}
	jsonV2Decoder = &spanDecoder{
		transport: transportV2JSON,
		encoding:  "json_v2",
		decode: func(blob []byte, _ bool) ([]*zipkinmodel.SpanModel, error) {
			var spans []*zipkinmodel.SpanModel
			if err := jsonCodec.Unmarshal(blob, &spans); err != nil {
				return nil, err
			}
			return spans, nil
		},
	}
	protobufV2Decoder = &spanDecoder{
		transport: transportV2Proto,
		encoding:  "protobuf_v2",
		decode:    zipkinproto.ParseSpans,
	}
)

// decoderFor resolves the decoder for a request. Every registered route
// resolves to a decoder; nil means the route itself is unknown.
func decoderFor(path, contentType string) *spanDecoder {
	byContentType, ok := decoders[path]
	if !ok {
		return nil
	}
	if d, ok := byContentType[contentType]; ok {
		return d
	}
	return byContentType[""]
}

// zipkinReceiver ingests spans from Zipkin clients over HTTP and forwards
// the sampled portion to the next consumer.
type zipkinReceiver struct {
	nextConsumer consumer.Traces
	config       *Config
	sampler      *traceSampler
	translator   zipkinv2.ToTranslator

	server     *http.Server
	shutdownWG sync.WaitGroup

	settings receiver.Settings
	obsrecvs map[string]*receiverhelper.ObsReport
}

var (
	_ receiver.Traces = (*zipkinReceiver)(nil)
	_ http.Handler    = (*zipkinReceiver)(nil)
)

func newReceiver(config *Config, nextConsumer consumer.Traces, settings receiver.Settings) (*zipkinReceiver, error) {
	sampler, err := newTraceSampler(config.SampleRate)
	if err != nil {
		return nil, err
	}

	obsrecvs := make(map[string]*receiverhelper.ObsReport)
	for _, transport := range []string{transportV1JSON, transportV1Thrift, transportV2JSON, transportV2Proto} {
		obsrecv, err := receiverhelper.NewObsReport(receiverhelper.ObsReportSettings{
			ReceiverID:             settings.ID,
			Transport:              transport,
			ReceiverCreateSettings: settings,
		})
		if err != nil {
			return nil, err
		}
		obsrecvs[transport] = obsrecv
	}

	return &zipkinReceiver{
		nextConsumer: nextConsumer,
		config:       config,
		sampler:      sampler,
		translator:   zipkinv2.ToTranslator{ParseStringTags: config.ParseStringTags},
		settings:     settings,
		obsrecvs:     obsrecvs,
	}, nil
}

// translate converts admitted spans to pdata in payload order. The
// translator sorts the slice it is handed, which would both reorder the
// batch and mutate the decoded slice it aliases at full rate, so spans are
// translated one at a time and appended in sequence.
func (zr *zipkinReceiver) translate(spans []*zipkinmodel.SpanModel) (ptrace.Traces, error) {
	td := ptrace.NewTraces()
	one := make([]*zipkinmodel.SpanModel, 1)
	for _, span := range spans {
		one[0] = span
		spanTraces, err := zr.translator.ToTraces(one)
		if err != nil {
			return td, err
		}
		spanTraces.ResourceSpans().MoveAndAppendTo(td.ResourceSpans())
	}
	return td, nil
}

// Start spins up the receiver's HTTP server.
func (zr *zipkinReceiver) Start(ctx context.Context, host component.Host) error {
	var err error
	if zr.server, err = zr.config.ToServer(ctx, host, zr.settings.TelemetrySettings, zr); err != nil {
		return err
	}
	listener, err := zr.config.ToListener(ctx)
	if err != nil {
		return err
	}
	zr.settings.Logger.Info("Starting Zipkin receiver", zap.String("endpoint", zr.config.Endpoint))

	zr.shutdownWG.Add(1)
	go func() {
		defer zr.shutdownWG.Done()
		if errHTTP := zr.server.Serve(listener); errHTTP != nil && !errors.Is(errHTTP, http.ErrServerClosed) {
			componentstatus.ReportStatus(host, componentstatus.NewFatalErrorEvent(errHTTP))
		}
	}()
	return nil
}

// Shutdown tells the receiver to stop serving and waits for in-flight
// requests to drain.
func (zr *zipkinReceiver) Shutdown(ctx context.Context) error {
	var err error
	if zr.server != nil {
		err = zr.server.Shutdown(ctx)
	}
	zr.shutdownWG.Wait()
	return err
}

// ServeHTTP runs the per-request pipeline: aggregate the body, decode,
// sample, translate, forward, respond. Request bodies arrive already
// decompressed, the confighttp server middleware strips transport
// encodings before the handler runs. Whatever the outcome, the telemetry
// op started here ends exactly once.
func (zr *zipkinReceiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Telemetry is recorded per transport, so a request rejected before a
	// decoder is resolved has no op to attribute and starts none.
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	decoder := decoderFor(r.URL.Path, r.Header.Get("Content-Type"))
	if decoder == nil {
		http.NotFound(w, r)
		return
	}

	obsrecv := zr.obsrecvs[decoder.transport]
	ctx := obsrecv.StartTracesOp(r.Context())

	blob, err := io.ReadAll(r.Body)
	if err != nil {
		obsrecv.EndTracesOp(ctx, decoder.encoding, 0, err)
		http.Error(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	// The proto3 encoding cannot distinguish debug=false from debug unset,
	// clients signal a debug request through the B3 flags header instead.
	debugWasSet := r.Header.Get("X-B3-Flags") == "1"

	spans, err := decoder.decode(blob, debugWasSet)
	if err != nil {
		err = fmt.Errorf("%s decoder: %w", decoder.encoding, err)
		obsrecv.EndTracesOp(ctx, decoder.encoding, 0, err)
		zr.settings.Logger.Debug("Failed to decode spans", zap.String("encoding", decoder.encoding), zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	sampled := zr.sampler.sampleSpans(spans)
	td, err := zr.translate(sampled)
	if err != nil {
		obsrecv.EndTracesOp(ctx, decoder.encoding, 0, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	consumerErr := zr.nextConsumer.ConsumeTraces(ctx, td)
	obsrecv.EndTracesOp(ctx, decoder.encoding, len(sampled), consumerErr)
	if consumerErr != nil {
		if consumererror.IsPermanent(consumerErr) {
			http.Error(w, "failed to forward spans", http.StatusBadRequest)
		} else {
			http.Error(w, "failed to forward spans", http.StatusServiceUnavailable)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}
