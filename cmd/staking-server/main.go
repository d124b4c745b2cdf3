package main

import (
	"github.com/sirupsen/logrus"

	"github.com/code-payments/staking-server/pkg/grpc/app"
)

func main() {
	if err := app.Run(&stakingApp{}); err != nil {
		logrus.StandardLogger().WithError(err).Fatal("error running staking server")
	}
}
