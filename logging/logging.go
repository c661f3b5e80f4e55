// Package logging wires up the engine's package-level loggers. Every
// component takes a *logrus.Entry pre-tagged with its own "component"
// field, so log lines can be filtered and attributed without a separate
// abstraction layer over logrus.
package logging

import "github.com/sirupsen/logrus"

// New builds the root logger for a process, parsing level (one of logrus's
// level names; an invalid level falls back to Info).
func New(level string) *logrus.Logger {
	log := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}

// Component returns a child entry tagged with "component"; the CLI uses it
// to build the entries it hands to the router client and the engine, so
// their log lines are attributable at a glance.
func Component(log *logrus.Logger, name string) *logrus.Entry {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return log.WithField("component", name)
}
