package testutil

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Test binaries log at trace level, but only to stdout under -v.
func init() {
	logrus.SetLevel(logrus.TraceLevel)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if !isVerboseRun(os.Args[1:]) {
		logrus.SetOutput(io.Discard)
	}
}

func isVerboseRun(args []string) bool {
	for _, arg := range args {
		if arg == "-test.v" || arg == "-test.v=true" || arg == "-test.v=test2json" {
			return true
		}
	}
	return false
}
