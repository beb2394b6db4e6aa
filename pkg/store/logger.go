package store

import "lol.mleku.dev/log"

// badgerLogger adapts badger's Logger interface onto lol.mleku.dev/log. It
// records the level passed to New but does not consult it: every message
// goes to the shared logger, whose own level decides what is printed.
type badgerLogger struct {
	level int
}

func newLogger(level int) *badgerLogger { return &badgerLogger{level: level} }

func (l *badgerLogger) Errorf(format string, args ...interface{})   { log.E.F(format, args...) }
func (l *badgerLogger) Warningf(format string, args ...interface{}) { log.W.F(format, args...) }
func (l *badgerLogger) Infof(format string, args ...interface{})    { log.I.F(format, args...) }
func (l *badgerLogger) Debugf(format string, args ...interface{})   { log.D.F(format, args...) }
