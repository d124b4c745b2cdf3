package testutil

import (
	"context"
	"net"
	"sync"

	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/code-payments/staking-server/pkg/grpc/app"
	"github.com/code-payments/staking-server/pkg/grpc/metrics"
	"github.com/code-payments/staking-server/pkg/grpc/validation"
)

const bufferSize = 1 << 20

// Server is an in process gRPC server for tests, served over an in memory
// listener. It runs the app's default interceptors, minus New Relic.
type Server struct {
	log *logrus.Entry

	mu         sync.Mutex
	serving    bool
	stopped    bool
	listener   *bufconn.Listener
	grpcServer *grpc.Server
}

// NewServer creates a new Server and a client connection to it. Services must
// be registered before calling Serve.
func NewServer() (*grpc.ClientConn, *Server, error) {
	listener := bufconn.Listen(bufferSize)

	unary, stream := app.RecoveryInterceptors()

	conn, err := grpc.NewClient(
		"passthrough:///bufconn",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(validation.UnaryClientInterceptor()),
	)
	if err != nil {
		listener.Close()
		return nil, nil, errors.Wrap(err, "failed to create grpc.ClientConn")
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
			unary,
			metrics.PrometheusUnaryServerInterceptor(),
			validation.UnaryServerInterceptor(),
		)),
		grpc.StreamInterceptor(grpc_middleware.ChainStreamServer(
			stream,
			validation.StreamServerInterceptor(),
		)),
	)

	return conn, &Server{
		log:        logrus.StandardLogger().WithField("type", "testutil/server"),
		listener:   listener,
		grpcServer: grpcServer,
	}, nil
}

// RegisterService registers a gRPC service with Server.
func (s *Server) RegisterService(registerFunc func(s *grpc.Server)) {
	registerFunc(s.grpcServer)
}

// Serve asynchronously starts the server. The returned stopFunc stops it and
// releases the listener, and is safe to call more than once.
func (s *Server) Serve() (stopFunc func(), err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return nil, errors.New("test server already stopped")
	}

	stopFunc = func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		if s.stopped {
			return
		}
		s.stopped = true
		s.grpcServer.Stop()
		s.listener.Close()
	}

	if s.serving {
		return stopFunc, nil
	}
	s.serving = true

	go func() {
		err := s.grpcServer.Serve(s.listener)
		s.log.WithError(err).Debug("stopped")
	}()

	return stopFunc, nil
}
