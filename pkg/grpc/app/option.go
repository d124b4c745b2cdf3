package app

import (
	"google.golang.org/grpc"
)

// Option customizes the gRPC servers started by Run.
type Option func(o *opts)

type opts struct {
	unaryServerInterceptors  []grpc.UnaryServerInterceptor
	streamServerInterceptors []grpc.StreamServerInterceptor
}

// WithUnaryServerInterceptors appends interceptors to the unary chain. They
// run after the default interceptors, in the order given.
func WithUnaryServerInterceptors(interceptors ...grpc.UnaryServerInterceptor) Option {
	return func(o *opts) {
		o.unaryServerInterceptors = append(o.unaryServerInterceptors, interceptors...)
	}
}

// WithStreamServerInterceptors appends interceptors to the stream chain. They
// run after the default interceptors, in the order given.
func WithStreamServerInterceptors(interceptors ...grpc.StreamServerInterceptor) Option {
	return func(o *opts) {
		o.streamServerInterceptors = append(o.streamServerInterceptors, interceptors...)
	}
}
