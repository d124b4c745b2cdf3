package metrics

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/newrelic/go-agent/v3/newrelic"
	grpc_core "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/code-payments/staking-server/pkg/grpc"
	"github.com/code-payments/staking-server/pkg/metrics"
)

const (
	grpcRequestPackageAttributeKey = "grpc.request.package"
	grpcRequestServiceAttributeKey = "grpc.request.service"
	grpcRequestMethodAttributeKey  = "grpc.request.method"

	grpcResponseStatusCodeAttributeKey      = "grpc.response.statusCode"
	grpcResponseStatusMessageAttributeKey   = "grpc.response.statusMessage"
	grpcResponseStatusCodeLevelAttributeKey = "grpc.response.statusCodeLevel"

	clientUserAgentAttributeKey = "grpc.client.userAgent"

	infoLevel    = "info"
	warningLevel = "warning"
	errorLevel   = "error"
)

// Staking rejections (freeze period, empty claims, lost conflicts) are
// expected outcomes and stay at the info level. Only error level codes are
// noticed as errors.
var statusCodeLevels = map[codes.Code]string{
	codes.OK:                 infoLevel,
	codes.Aborted:            infoLevel,
	codes.AlreadyExists:      infoLevel,
	codes.Canceled:           infoLevel,
	codes.FailedPrecondition: infoLevel,
	codes.InvalidArgument:    infoLevel,
	codes.NotFound:           infoLevel,

	codes.DeadlineExceeded:  warningLevel,
	codes.PermissionDenied:  warningLevel,
	codes.ResourceExhausted: warningLevel,
	codes.Unauthenticated:   warningLevel,
	codes.Unavailable:       warningLevel,

	codes.DataLoss:      errorLevel,
	codes.Unknown:       errorLevel,
	codes.Internal:      errorLevel,
	codes.Unimplemented: errorLevel,
}

// CustomNewRelicUnaryServerInterceptor records every unary call as a New
// Relic web transaction. A nil app disables it.
func CustomNewRelicUnaryServerInterceptor(app *newrelic.Application) grpc_core.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc_core.UnaryServerInfo, handler grpc_core.UnaryHandler) (resp interface{}, err error) {
		if app == nil {
			return handler(ctx, req)
		}

		err = observe(ctx, app, info.FullMethod, func(ctx context.Context) error {
			resp, err = handler(ctx, req)
			return err
		})
		return resp, err
	}
}

// CustomNewRelicStreamServerInterceptor is the streaming counterpart of
// CustomNewRelicUnaryServerInterceptor.
func CustomNewRelicStreamServerInterceptor(app *newrelic.Application) grpc_core.StreamServerInterceptor {
	return func(srv interface{}, ss grpc_core.ServerStream, info *grpc_core.StreamServerInfo, handler grpc_core.StreamHandler) error {
		if app == nil {
			return handler(srv, ss)
		}

		return observe(ss.Context(), app, info.FullMethod, func(ctx context.Context) error {
			return handler(srv, &contextStream{ctx: ctx, ServerStream: ss})
		})
	}
}

func observe(ctx context.Context, app *newrelic.Application, fullMethod string, call func(context.Context) error) error {
	md, _ := metadata.FromIncomingContext(ctx)

	txn := app.StartTransaction(strings.TrimPrefix(fullMethod, "/"))
	defer txn.End()

	annotateRequest(txn, fullMethod, md)

	// Handlers record custom events and segments against the app and txn
	ctx = metrics.WithNewRelicApp(ctx, app)
	ctx = newrelic.NewContext(ctx, txn)

	err := call(ctx)
	annotateResponse(txn, err)
	return err
}

type contextStream struct {
	ctx context.Context
	grpc_core.ServerStream
}

func (s *contextStream) Context() context.Context {
	return s.ctx
}

func annotateRequest(txn *newrelic.Transaction, fullMethod string, md metadata.MD) {
	method := strings.TrimPrefix(fullMethod, "/")

	hdrs := make(http.Header, len(md))
	for k, vs := range md {
		for _, v := range vs {
			hdrs.Add(k, v)
		}
	}

	txn.SetWebRequest(newrelic.WebRequest{
		Header:    hdrs,
		URL:       requestURL(method, hdrs.Get(":authority")),
		Method:    method,
		Transport: newrelic.TransportHTTP,
	})

	if packageName, serviceName, methodName, err := grpc.ParseFullMethodName(fullMethod); err == nil {
		txn.AddAttribute(grpcRequestPackageAttributeKey, packageName)
		txn.AddAttribute(grpcRequestServiceAttributeKey, serviceName)
		txn.AddAttribute(grpcRequestMethodAttributeKey, methodName)
	}

	if userAgent := md.Get("user-agent"); len(userAgent) > 0 {
		txn.AddAttribute(clientUserAgentAttributeKey, userAgent[0])
	}
}

// requestURL follows the gRPC naming scheme for target
// (https://github.com/grpc/grpc/blob/master/doc/naming.md).
func requestURL(method, target string) *url.URL {
	host := strings.TrimPrefix(target, "dns:///")
	if strings.HasPrefix(target, "unix:") {
		host = "localhost"
	}
	return &url.URL{Scheme: "grpc", Host: host, Path: method}
}

func levelOf(code codes.Code) string {
	if level, ok := statusCodeLevels[code]; ok {
		return level
	}
	return errorLevel
}

func annotateResponse(txn *newrelic.Transaction, err error) {
	s := status.Convert(err)
	level := levelOf(s.Code())

	txn.SetWebResponse(nil).WriteHeader(int(codes.OK))
	txn.AddAttribute(grpcResponseStatusCodeAttributeKey, s.Code().String())
	txn.AddAttribute(grpcResponseStatusMessageAttributeKey, s.Message())
	txn.AddAttribute(grpcResponseStatusCodeLevelAttributeKey, level)

	if level == errorLevel {
		txn.NoticeError(&newrelic.Error{
			Message: s.Message(),
			Class:   "gRPC Status: " + s.Code().String(),
		})
	}
}
