// Package debug holds env-flag driven debug switches for the sync engine.
package debug

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

type debug struct {
	Batch bool
	Patch bool
	Watch bool
	Scope bool
}

var (
	d     *debug
	label func(...any) string
)

func init() {
	d = &debug{}
	d.Batch = boolEnv("SCRIBE_DEBUG_BATCH")
	d.Patch = boolEnv("SCRIBE_DEBUG_PATCH")
	d.Watch = boolEnv("SCRIBE_DEBUG_WATCH")
	d.Scope = boolEnv("SCRIBE_DEBUG_SCOPE")
	label = fmt.Sprint
	if isatty.IsTerminal(os.Stderr.Fd()) {
		label = color.New(color.FgYellow).SprintFunc()
	}
}

func boolEnv(v string) bool {
	x := os.Getenv(v)
	if x == "" {
		return false
	}
	b, _ := strconv.ParseBool(x)
	return b
}

func Batch() bool {
	return d.Batch
}
func Patch() bool {
	return d.Patch
}
func Watch() bool {
	return d.Watch
}
func Scope() bool {
	return d.Scope
}

// Logf writes one debug line to stderr.
func Logf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "%s %s\n", label("[debug]"), fmt.Sprintf(format, args...))
}

// JSON renders v for debug output.
func JSON(v any) string {
	d, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(d)
}
