package localnode

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	libshare "github.com/celestiaorg/go-square/v3/share"
	fjrpc "github.com/filecoin-project/go-jsonrpc"
	"github.com/filecoin-project/go-jsonrpc/auth"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/evstack/celestia-rpc-client/pkg/blob"
	"github.com/evstack/celestia-rpc-client/pkg/header"
	"github.com/evstack/celestia-rpc-client/pkg/telemetry"
)

const tracerName = "celestia-client/localnode"

// AllPermissions are granted to the static token, mirroring celestia-node's
// admin token.
var AllPermissions = []auth.Permission{"public", "read", "write", "admin"}

// blobServer exposes a minimal Celestia-like blob RPC surface backed by Node.
type blobServer struct {
	node   *Node
	authz  authorizer
	logger zerolog.Logger
}

// Submit stores blobs in a new block and returns its height.
func (s *blobServer) Submit(ctx context.Context, blobs []*blob.Blob, _ *blob.SubmitOptions) (uint64, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "LocalNode.Submit",
		trace.WithAttributes(attribute.Int("blob.count", len(blobs))))
	defer span.End()

	if err := s.authz.check(ctx, "Submit", "write"); err != nil {
		return 0, err
	}

	for i, b := range blobs {
		if uint64(len(b.Data())) > s.node.maxBlobSize {
			return 0, ErrBlobSizeOverLimit
		}
		if len(b.Commitment) == 0 {
			com, err := blob.CreateCommitment(b.Blob)
			if err != nil {
				return 0, err
			}
			blobs[i].Commitment = com
		}
	}

	height, err := s.node.ProduceBlock(blobs...)
	if err != nil {
		return 0, err
	}
	s.logger.Debug().Uint64("height", height).Int("num_blobs", len(blobs)).Msg("blobs submitted")
	return height, nil
}

// Get returns a blob by height, namespace and commitment.
func (s *blobServer) Get(ctx context.Context, height uint64, namespace libshare.Namespace, commitment blob.Commitment) (*blob.Blob, error) {
	if err := s.authz.check(ctx, "Get", "read"); err != nil {
		return nil, err
	}

	blobs, err := s.node.getAll(height, []libshare.Namespace{namespace})
	if err != nil {
		return nil, err
	}
	for _, b := range blobs {
		if b.EqualCommitment(commitment) {
			return b, nil
		}
	}
	return nil, ErrBlobNotFound
}

// GetAll returns blobs matching any of the provided namespaces at the given
// height. Like celestia-node, a height without matching blobs yields null.
func (s *blobServer) GetAll(ctx context.Context, height uint64, namespaces []libshare.Namespace) ([]*blob.Blob, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "LocalNode.GetAll",
		trace.WithAttributes(attribute.Int64("da.height", int64(height))))
	defer span.End()

	if err := s.authz.check(ctx, "GetAll", "read"); err != nil {
		return nil, err
	}
	return s.node.getAll(height, namespaces)
}

// GetProof returns a placeholder proof; Node does not generate real proofs.
func (s *blobServer) GetProof(ctx context.Context, height uint64, namespace libshare.Namespace, commitment blob.Commitment) (*blob.Proof, error) {
	if _, err := s.Get(ctx, height, namespace, commitment); err != nil {
		return nil, err
	}
	return &blob.Proof{}, nil
}

// Included reports whether a commitment is present at a given height/namespace.
func (s *blobServer) Included(ctx context.Context, height uint64, namespace libshare.Namespace, _ *blob.Proof, commitment blob.Commitment) (bool, error) {
	_, err := s.Get(ctx, height, namespace, commitment)
	if err != nil {
		if errors.Is(err, ErrBlobNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GetCommitmentProof returns the subtree roots of the blob committed to by
// shareCommitment.
func (s *blobServer) GetCommitmentProof(ctx context.Context, height uint64, namespace libshare.Namespace, shareCommitment []byte) (*blob.CommitmentProof, error) {
	b, err := s.Get(ctx, height, namespace, shareCommitment)
	if err != nil {
		return nil, err
	}
	return blob.NewCommitmentProof(b.Blob)
}

// headerServer exposes the header RPC surface backed by Node.
type headerServer struct {
	node  *Node
	authz authorizer
}

// LocalHead returns the latest header.
func (s *headerServer) LocalHead(ctx context.Context) (*header.ExtendedHeader, error) {
	if err := s.authz.check(ctx, "LocalHead", "read"); err != nil {
		return nil, err
	}
	return s.node.head()
}

// NetworkHead returns the latest header (same as local for Node).
func (s *headerServer) NetworkHead(ctx context.Context) (*header.ExtendedHeader, error) {
	if err := s.authz.check(ctx, "NetworkHead", "read"); err != nil {
		return nil, err
	}
	return s.node.head()
}

// GetByHeight returns the header for a specific height.
func (s *headerServer) GetByHeight(ctx context.Context, height uint64) (*header.ExtendedHeader, error) {
	if err := s.authz.check(ctx, "GetByHeight", "read"); err != nil {
		return nil, err
	}
	return s.node.headerAt(height)
}

// Subscribe streams every header produced from now on.
func (s *headerServer) Subscribe(ctx context.Context) (<-chan json.RawMessage, error) {
	if err := s.authz.check(ctx, "Subscribe", "read"); err != nil {
		return nil, err
	}
	return s.node.Subscribe(ctx)
}

type authorizer struct {
	enabled bool
}

func (a authorizer) check(ctx context.Context, method string, perm auth.Permission) error {
	if !a.enabled || auth.HasPerm(ctx, nil, perm) {
		return nil
	}
	return fmt.Errorf("missing permission to invoke '%s' (need '%s')", method, perm)
}

// Server serves a Node over JSON-RPC on HTTP and websocket.
type Server struct {
	node      *Node
	token     string
	jwtSecret []byte
	logger    zerolog.Logger

	handler http.Handler

	mu          sync.Mutex
	authHeaders []string
	srv         *http.Server
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithJWTSecret accepts JWTs signed with secret (see NewJWT) in addition to
// the static token. They grant the permissions listed in their Allow claim.
func WithJWTSecret(secret []byte) ServerOption {
	return func(s *Server) {
		s.jwtSecret = secret
	}
}

// NewServer builds the JSON-RPC handler for node. A non-empty token or a JWT
// secret enables bearer authentication: requests without a token lack every
// permission and requests with an invalid one are rejected.
func NewServer(logger zerolog.Logger, node *Node, token string, opts ...ServerOption) *Server {
	s := &Server{
		node:   node,
		token:  token,
		logger: logger.With().Str("component", "local_node_rpc").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}

	authz := authorizer{enabled: token != "" || len(s.jwtSecret) > 0}
	rpc := fjrpc.NewServer()
	rpc.Register("blob", &blobServer{node: node, authz: authz, logger: s.logger})
	rpc.Register("header", &headerServer{node: node, authz: authz})

	var h http.Handler = rpc
	if authz.enabled {
		h = &auth.Handler{Verify: s.verify, Next: rpc.ServeHTTP}
	}
	s.handler = s.recordAuth(telemetry.ContinueTrace(h))
	return s
}

// Handler returns the HTTP handler serving both modules.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// AuthHeaders returns the Authorization header of every request received so
// far, in order. Requests without one are recorded as "".
func (s *Server) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.authHeaders...)
}

// Start listens on addr and serves in the background. It returns the bound
// address, which differs from addr when the port is 0.
func (s *Server) Start(addr string) (string, error) {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return "", fmt.Errorf("listen on %s: %w", addr, err)
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 2 * time.Second,
	}
	s.mu.Lock()
	s.srv = srv
	s.mu.Unlock()

	go func() {
		if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error().Err(err).Msg("local node RPC server failed")
		}
	}()
	return lis.Addr().String(), nil
}

// Shutdown ends all subscriptions and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.node.Close()

	s.mu.Lock()
	srv := s.srv
	s.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

func (s *Server) verify(_ context.Context, token string) ([]auth.Permission, error) {
	if s.token != "" && subtle.ConstantTimeCompare([]byte(token), []byte(s.token)) == 1 {
		return AllPermissions, nil
	}
	if len(s.jwtSecret) > 0 {
		return parseJWT(s.jwtSecret, token)
	}
	return nil, ErrInvalidToken
}

func (s *Server) recordAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.authHeaders = append(s.authHeaders, r.Header.Get("Authorization"))
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}
