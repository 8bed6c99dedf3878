// Package stacktrace trims goroutine stacks down to this module's own frames.
package stacktrace

import (
	"runtime"
	"strconv"
	"strings"
)

const marker = "/internal/"

// Internal returns "internal/<pkg>/<file>.go:<line>" for every frame of the
// caller's stack that belongs to this module, innermost first. skip counts
// frames above Internal itself.
func Internal(skip int) []string {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip+2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var out []string
	for {
		f, more := frames.Next()
		if i := strings.Index(f.File, marker); i != -1 {
			out = append(out, f.File[i+1:]+":"+strconv.Itoa(f.Line))
		}
		if !more {
			break
		}
	}

	return out
}
