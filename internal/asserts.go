package internal

import (
	"fmt"
	"runtime"
	"strings"
)

// AssertionError - нарушение внутреннего инварианта. Передается в panic.
type AssertionError struct {
	Tags     []any
	Location []string
}

func (e *AssertionError) Error() string {
	var sb strings.Builder
	sb.WriteString("#ASSERTION_FAILED")
	for _, tag := range e.Tags {
		sb.WriteString(" ")
		sb.WriteString(fmt.Sprint(tag))
	}
	for _, loc := range e.Location {
		sb.WriteString("\n\t")
		sb.WriteString(loc)
	}
	return sb.String()
}

// Assert паникует с *AssertionError, если condition ложно.
func Assert(condition bool, tags ...any) {
	if !condition {
		panic(&AssertionError{Tags: tags, Location: callers()})
	}
}

// AssertFunc аналогичен Assert, но вычисляет условие лениво.
func AssertFunc(condition func() bool, tags ...any) {
	if !condition() {
		panic(&AssertionError{Tags: tags, Location: callers()})
	}
}

// Caller возвращает "file:line" вызывающего кода, пропуская skip кадров.
func Caller(skip int) string {
	if _, file, line, ok := runtime.Caller(skip + 1); ok {
		return fmt.Sprintf("%v:%v", file, line)
	}
	return "?"
}

func callers() []string {
	var locs []string
	for skip := 2; skip <= 3; skip++ {
		if _, file, line, ok := runtime.Caller(skip); ok {
			locs = append(locs, fmt.Sprintf("%v:%v", file, line))
		}
	}
	return locs
}
