// Package warn is the domain-provided logging hook mandated by the error
// handling design: an unsupported transfer or an intentionally imprecise
// fallback (conservative meet, no-op narrowing) reports through here
// instead of failing. Warnf never aborts; the only abort in this package is
// Invariant, reserved for broken internal invariants.
package warn

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// Sink receives formatted warnings. The default Sink routes through a
// logrus logger on os.Stderr; callers embedding the engine in a larger
// tool swap it out with SetSink to route warnings into their own
// diagnostics stream.
type Sink interface {
	Warnf(format string, args ...interface{})
}

type logrusSink struct{ l *log.Logger }

func (s logrusSink) Warnf(format string, args ...interface{}) {
	s.l.Warnf(format, args...)
}

func defaultSink() Sink {
	l := log.New()
	l.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	return logrusSink{l}
}

var sink = defaultSink()

// SetSink redirects future warnings. Passing nil restores the default
// logrus sink.
func SetSink(s Sink) {
	if s == nil {
		sink = defaultSink()
		return
	}
	sink = s
}

// Warnf reports a sound-but-imprecise fallback: an unsupported transfer
// left the state unchanged, or a combinator chose a conservative
// over-approximation rather than an exact result.
func Warnf(format string, args ...interface{}) {
	sink.Warnf(format, args...)
}

// Invariant aborts with a diagnostic. It is reserved for self-checks that
// catch a broken internal invariant -- a programmer bug in a domain
// implementation, never a condition a well-formed analysis can hit in
// production use.
func Invariant(ok bool, format string, args ...interface{}) {
	if !ok {
		panic(fmt.Sprintf("internal invariant violated: "+format, args...))
	}
}
