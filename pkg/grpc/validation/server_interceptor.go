package validation

import (
	"context"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UnaryServerInterceptor returns a grpc.UnaryServerInterceptor that validates
// inbound and outbound messages. If an inbound message is invalid, a
// codes.InvalidArgument is returned. If an outbound message is invalid, a
// codes.Internal is returned.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	log := logrus.StandardLogger().WithField("type", "grpc/validation/interceptor")

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if err := Validate(req); err != nil {
			// Outside of our control
			log.WithError(err).WithField("method", info.FullMethod).Debug("dropping invalid request")
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}

		resp, err := handler(ctx, req)
		if err != nil {
			return nil, err
		}

		if err := Validate(resp); err != nil {
			log.WithError(err).WithField("method", info.FullMethod).Warn("dropping invalid response")
			return nil, status.Error(codes.Internal, err.Error())
		}

		return resp, nil
	}
}

// StreamServerInterceptor returns a grpc.StreamServerInterceptor that
// validates every message received and sent on the stream.
func StreamServerInterceptor() grpc.StreamServerInterceptor {
	log := logrus.StandardLogger().WithField("type", "grpc/validation/interceptor")

	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		return handler(srv, &serverStreamWrapper{log: log, ServerStream: ss})
	}
}

type serverStreamWrapper struct {
	log *logrus.Entry

	grpc.ServerStream
}

func (s *serverStreamWrapper) RecvMsg(req interface{}) error {
	if err := s.ServerStream.RecvMsg(req); err != nil {
		return err
	}

	if err := Validate(req); err != nil {
		s.log.WithError(err).Debug("dropping invalid request")
		return status.Error(codes.InvalidArgument, err.Error())
	}
	return nil
}

func (s *serverStreamWrapper) SendMsg(res interface{}) error {
	if err := Validate(res); err != nil {
		s.log.WithError(err).Warn("dropping invalid response")
		return status.Error(codes.Internal, err.Error())
	}
	return s.ServerStream.SendMsg(res)
}
