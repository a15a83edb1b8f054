package logrus

import (
	"github.com/sirupsen/logrus"
	"github.com/unkn0wn-root/smile"
)

// Logger adapts a *logrus.Entry to smile.Logger.
type Logger struct{ E *logrus.Entry }

var _ smile.Logger = Logger{}

func (l Logger) Debug(msg string, f smile.Fields) { l.E.WithFields(logrus.Fields(f)).Debug(msg) }
func (l Logger) Info(msg string, f smile.Fields)  { l.E.WithFields(logrus.Fields(f)).Info(msg) }
func (l Logger) Warn(msg string, f smile.Fields)  { l.E.WithFields(logrus.Fields(f)).Warn(msg) }
func (l Logger) Error(msg string, f smile.Fields) { l.E.WithFields(logrus.Fields(f)).Error(msg) }
