package logging

import "github.com/sirupsen/logrus"

func Init(verbose bool) {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
}
