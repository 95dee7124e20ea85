package main

import (
	"os"

	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if err := NewRootCommand(logger).Execute(); err != nil {
		logger.WithError(err).Error("mailform failed")
		os.Exit(1)
	}
}
