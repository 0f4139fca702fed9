package log

import (
	"runtime"
	"strconv"
	"strings"
)

// SkipCaller returns the file:line of the caller skip frames up the stack.
func SkipCaller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok {
		return "?"
	}
	return file + ":" + strconv.Itoa(line)
}

// PanicInvoker returns the file:line which raised a panic, when called from a
// deferred recover. Frames of the runtime panic machinery are skipped.
func PanicInvoker(skip int) string {
	for {
		_, file, line, ok := runtime.Caller(skip)
		if !ok {
			return "?"
		}
		if strings.HasSuffix(file, "runtime/panic.go") {
			skip++
			continue
		}
		return file + ":" + strconv.Itoa(line)
	}
}
