package grpc

import (
	"context"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const healthCheckEndpoint = "/grpc.health.v1.Health/Check"

var fullMethodNamePattern = regexp.MustCompile(`^/([a-zA-Z0-9]+\.)+[a-zA-Z0-9]+/[a-zA-Z0-9]+$`)

var errUnavailable = status.Error(codes.Unavailable, "temporarily unavailable")

// ParseFullMethodName splits "/pkg.v1.Service/Method" into "pkg.v1",
// "Service" and "Method".
func ParseFullMethodName(fullMethodName string) (packageName, serviceName, methodName string, err error) {
	if !fullMethodNamePattern.MatchString(fullMethodName) {
		return "", "", "", errors.Errorf("invalid full method name %q", fullMethodName)
	}

	qualifiedService, methodName, _ := strings.Cut(fullMethodName[1:], "/")
	dot := strings.LastIndex(qualifiedService, ".")
	return qualifiedService[:dot], qualifiedService[dot+1:], methodName, nil
}

// UnavailableUnaryServerInterceptor fails all unary calls with
// codes.Unavailable. Health checks still pass.
func UnavailableUnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if IsHealthCheckEndpoint(info.FullMethod) {
			return handler(ctx, req)
		}
		return nil, errUnavailable
	}
}

// UnavailableStreamServerInterceptor fails all streaming calls with
// codes.Unavailable.
func UnavailableStreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(_ interface{}, _ grpc.ServerStream, _ *grpc.StreamServerInfo, _ grpc.StreamHandler) error {
		return errUnavailable
	}
}

func IsHealthCheckEndpoint(fullMethod string) bool {
	return fullMethod == healthCheckEndpoint
}
