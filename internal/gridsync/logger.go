package gridsync

import "github.com/sirupsen/logrus"

// Logger is the subset of logrus used throughout the server. Both
// *logrus.Logger and *logrus.Entry satisfy it.
type Logger interface {
	WithError(err error) *logrus.Entry
	WithField(key string, value interface{}) *logrus.Entry

	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Printf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	Debug(args ...interface{})
	Info(args ...interface{})
	Println(args ...interface{})
}
