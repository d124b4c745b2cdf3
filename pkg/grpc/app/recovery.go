package app

import (
	"runtime/debug"

	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RecoveryInterceptors turn a panicking handler into an Internal error
// instead of crashing the process.
func RecoveryInterceptors() (grpc.UnaryServerInterceptor, grpc.StreamServerInterceptor) {
	log := logrus.StandardLogger().WithField("type", "grpc/app/recovery")

	handler := grpc_recovery.WithRecoveryHandler(func(p interface{}) error {
		log.WithFields(logrus.Fields{
			"panic": p,
			"stack": string(debug.Stack()),
		}).Error("recovered from handler panic")
		return status.Error(codes.Internal, "")
	})

	return grpc_recovery.UnaryServerInterceptor(handler), grpc_recovery.StreamServerInterceptor(handler)
}
