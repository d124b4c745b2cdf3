package validation

import (
	"context"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// UnaryClientInterceptor returns a grpc.UnaryClientInterceptor that validates
// outbound requests and inbound responses. Invalid requests never leave the
// client and fail with codes.InvalidArgument. Invalid responses fail with
// codes.Internal.
func UnaryClientInterceptor() grpc.UnaryClientInterceptor {
	log := logrus.StandardLogger().WithField("type", "grpc/validation/interceptor")

	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		if err := Validate(req); err != nil {
			// The caller is at fault
			log.WithError(err).WithField("method", method).Warn("dropping invalid request")
			return status.Error(codes.InvalidArgument, err.Error())
		}

		if err := invoker(ctx, method, req, reply, cc, opts...); err != nil {
			return err
		}

		if err := Validate(reply); err != nil {
			log.WithError(err).WithField("method", method).Debug("dropping invalid response")
			return status.Error(codes.Internal, err.Error())
		}
		return nil
	}
}
