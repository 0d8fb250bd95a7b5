package telemetry

import (
	"context"
	"encoding/hex"
	"net/http"

	libshare "github.com/celestiaorg/go-square/v3/share"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/evstack/celestia-rpc-client/pkg/blob"
	"github.com/evstack/celestia-rpc-client/pkg/config"
	"github.com/evstack/celestia-rpc-client/pkg/rpc"
)

// NodeAPI is the part of the node client used by the watcher and the
// submit round trip.
type NodeAPI interface {
	SubscribeHeaders(ctx context.Context) (*rpc.Subscription, error)
	GetAll(ctx context.Context, height uint64, namespaces []libshare.Namespace) ([]*blob.Blob, error)
	Submit(ctx context.Context, blobs []*blob.Blob, opts *blob.SubmitOptions) (uint64, error)
}

var _ NodeAPI = (*rpc.Client)(nil)

// tracedClient decorates a NodeAPI with OpenTelemetry spans.
type tracedClient struct {
	inner  NodeAPI
	tracer trace.Tracer
}

// WithTracingClient decorates inner with tracing spans.
func WithTracingClient(inner NodeAPI) NodeAPI {
	return &tracedClient{inner: inner, tracer: otel.Tracer("celestia-client/rpc")}
}

func (t *tracedClient) SubscribeHeaders(ctx context.Context) (*rpc.Subscription, error) {
	ctx, span := t.tracer.Start(ctx, "Header.Subscribe")
	defer span.End()

	sub, err := t.inner.SubscribeHeaders(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return sub, nil
}

func (t *tracedClient) GetAll(ctx context.Context, height uint64, namespaces []libshare.Namespace) ([]*blob.Blob, error) {
	ctx, span := t.tracer.Start(ctx, "Blob.GetAll",
		trace.WithAttributes(
			attribute.Int64("da.height", int64(height)),
			attribute.Int("ns.count", len(namespaces)),
			attribute.StringSlice("da.namespaces", namespaceHexes(namespaces)),
		),
	)
	defer span.End()

	blobs, err := t.inner.GetAll(ctx, height, namespaces)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("blob.count", len(blobs)))
	return blobs, nil
}

func (t *tracedClient) Submit(ctx context.Context, blobs []*blob.Blob, opts *blob.SubmitOptions) (uint64, error) {
	total := 0
	namespaces := make([]libshare.Namespace, 0, len(blobs))
	for _, b := range blobs {
		if b == nil || b.Blob == nil {
			continue
		}
		total += len(b.Data())
		namespaces = append(namespaces, b.Namespace())
	}
	ctx, span := t.tracer.Start(ctx, "Blob.Submit",
		trace.WithAttributes(
			attribute.Int("blob.count", len(blobs)),
			attribute.Int("blob.total_size_bytes", total),
			attribute.StringSlice("da.namespaces", namespaceHexes(namespaces)),
		),
	)
	defer span.End()

	height, err := t.inner.Submit(ctx, blobs, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}
	span.SetAttributes(attribute.Int64("da.height", int64(height)))
	return height, nil
}

func namespaceHexes(namespaces []libshare.Namespace) []string {
	out := make([]string, len(namespaces))
	for i, ns := range namespaces {
		out[i] = hex.EncodeToString(ns.Bytes())
	}
	return out
}

// RPCHTTPClient returns the client for http:// node endpoints. With tracing
// enabled it forwards the span of each call in the traceparent header so the
// node can join the trace. It returns nil otherwise.
func RPCHTTPClient(cfg config.InstrumentationConfig) *http.Client {
	if !cfg.IsTracingEnabled() {
		return nil
	}
	return &http.Client{Transport: traceparentTransport{next: http.DefaultTransport}}
}

type traceparentTransport struct {
	next http.RoundTripper
}

func (t traceparentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	// a RoundTripper must not modify the caller's request
	req = req.Clone(req.Context())
	otel.GetTextMapPropagator().Inject(req.Context(), propagation.HeaderCarrier(req.Header))
	return t.next.RoundTrip(req)
}

// ContinueTrace makes spans started while serving a node call children of
// the caller's span.
func ContinueTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
