package pump

import (
	"fmt"
	"runtime"
	"strings"

	errors "github.com/goliatone/go-errors"
)

// capturePanic converts a handler panic into an error routed through the
// configured error handler, keeping the consumer goroutine alive.
func (p *Pump[SM, M]) capturePanic() {
	cause := recover()
	if cause == nil {
		return
	}

	stack := make([]byte, 8096)
	n := runtime.Stack(stack, false)
	stack = cleanStackTrace(stack[:n])

	err, ok := cause.(error)
	if !ok {
		err = fmt.Errorf("%v", cause)
	}

	p.errorHandler(errors.Wrap(
		err,
		errors.CategoryHandler,
		"recovered from panic while dispatching",
	).
		WithTextCode("HSM_PUMP_PANIC").
		WithMetadata(map[string]any{
			"panic_type": fmt.Sprintf("%T", cause),
			"stack":      string(stack),
		}))
}

func cleanStackTrace(stack []byte) []byte {
	lines := strings.Split(string(stack), "\n")

	// we find the index after the panic line
	panicLineIndex := -1
	for i, line := range lines {
		if strings.Contains(line, "panic(") {
			panicLineIndex = i
			break
		}
	}

	// then remove everything before it
	if panicLineIndex >= 0 && panicLineIndex+2 < len(lines) {
		// remove the panic() call line & file reference line
		// panic({0x101fc1100?, 0x14000817248?})
		//         ./go/src/runtime/panic.go:785 +0x124
		lines = lines[panicLineIndex+2:]
	}

	return []byte(strings.Join(lines, "\n"))
}
