/*
Package mozc implements an offline system-dictionary builder for a
Japanese input method: it reads a flat list of lexical Tokens (reading,
surface, part-of-speech ids, cost, attributes) and emits a single binary
image — a value trie, a key trie, a token array, and a 256-slot
frequent-POS table — readable by a separate runtime without re-parsing
text. That runtime, and the text-dictionary tokenizer that produces the
Token stream in the first place, are both out of scope here.
*/
package mozc

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'mozc'.
func tracer() tracing.Trace {
	return tracing.Select("mozc")
}

// BuildError marks a fatal precondition or post-condition violation
// encountered during a build pass.
type BuildError struct {
	Pass    string
	Message string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("mozc: pass %s: %s", e.Pass, e.Message)
}

// fail panics with a *BuildError. Passes call this instead of
// returning an error so a violated invariant stops the build
// immediately; BuildFromReader is the only place that recovers it.
func fail(pass, format string, args ...any) {
	panic(&BuildError{Pass: pass, Message: fmt.Sprintf(format, args...)})
}

func assert(condition bool, pass, msg string) {
	if !condition {
		fail(pass, "%s", msg)
	}
}
