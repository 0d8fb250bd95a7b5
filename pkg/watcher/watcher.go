// Package watcher turns the header stream of a light node into one blob
// query per height.
package watcher

import (
	"context"
	"fmt"
	"io"
	"os"

	libshare "github.com/celestiaorg/go-square/v3/share"
	"github.com/rs/zerolog"

	"github.com/evstack/celestia-rpc-client/pkg/blob"
	"github.com/evstack/celestia-rpc-client/pkg/namespace"
	"github.com/evstack/celestia-rpc-client/pkg/rpc"
)

// Subscriber opens a header subscription.
type Subscriber interface {
	SubscribeHeaders(ctx context.Context) (*rpc.Subscription, error)
}

// BlobGetter fetches the blobs published at a height.
type BlobGetter interface {
	GetAll(ctx context.Context, height uint64, namespaces []libshare.Namespace) ([]*blob.Blob, error)
}

// Report is the outcome of processing one header.
type Report struct {
	Height uint64
	Count  int
	Err    error
}

// Watcher consumes headers and reports the blobs found at each height.
type Watcher struct {
	sub       Subscriber
	blobs     BlobGetter
	namespace libshare.Namespace
	label     string

	out      io.Writer
	errOut   io.Writer
	logger   zerolog.Logger
	onReport func(Report)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithOutput sets the writers for report lines and error lines.
func WithOutput(out, errOut io.Writer) Option {
	return func(w *Watcher) {
		w.out = out
		w.errOut = errOut
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// WithReportHook registers fn to be called after every header, in delivery order.
func WithReportHook(fn func(Report)) Option {
	return func(w *Watcher) {
		w.onReport = fn
	}
}

// New creates a watcher querying ns at every height announced by sub.
func New(sub Subscriber, blobs BlobGetter, ns libshare.Namespace, opts ...Option) *Watcher {
	w := &Watcher{
		sub:       sub,
		blobs:     blobs,
		namespace: ns,
		label:     namespace.Label(ns),
		out:       os.Stdout,
		errOut:    os.Stderr,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.With().Str("component", "watcher").Logger()
	return w
}

// Run subscribes and processes headers until the stream ends or ctx is done.
// Header and blob query failures are reported and skipped; only a failure to
// open the subscription is returned.
func (w *Watcher) Run(ctx context.Context) error {
	stream, err := w.sub.SubscribeHeaders(ctx)
	if err != nil {
		return fmt.Errorf("subscribe to headers: %w", err)
	}
	w.logger.Debug().Str("namespace", w.label).Msg("watching headers")

	for {
		ev, ok := stream.Next(ctx)
		if !ok {
			break
		}
		if ev.Err != nil {
			fmt.Fprintf(w.errOut, "ERROR: Error receiving header: %v\n", ev.Err)
			continue
		}
		if !w.process(ctx, ev) {
			break
		}
	}

	w.logger.Debug().Bool("cancelled", ctx.Err() != nil).Msg("header stream ended")
	return nil
}

// process queries the blobs of one header. It returns false when ctx ended
// while the query was in flight.
func (w *Watcher) process(ctx context.Context, ev rpc.Event) bool {
	height := ev.Header.Height()
	fmt.Fprintf(w.out, "Header: %s\n", ev.Header)

	blobs, err := w.blobs.GetAll(ctx, height, []libshare.Namespace{w.namespace})
	if err != nil {
		if ctx.Err() != nil {
			return false
		}
		fmt.Fprintf(w.errOut, "ERROR: Error fetching blobs: %v\n", err)
		w.logger.Debug().Err(err).Uint64("height", height).Msg("blob query failed")
		w.report(Report{Height: height, Err: err})
		return true
	}

	fmt.Fprintf(w.out, "Found %d blobs at height %d in the %s namespace\n", len(blobs), height, w.label)
	w.report(Report{Height: height, Count: len(blobs)})
	return true
}

func (w *Watcher) report(r Report) {
	if w.onReport != nil {
		w.onReport(r)
	}
}
