// Package script compiles behavior scripts into behavior.Body values.
//
// Script engines expose walk, wait, log and position to the script. A call to walk or
// wait suspends the whole program until the driver asks for the next action,
// so scripts read as plain blocking code.
package script

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jakecoffman/cp"
	"go.uber.org/zap"

	"github.com/milk9111/walkabout/behavior"
)

var ErrUnsupported = errors.New("script: unsupported script type")

// Options configures the functions exposed to scripts.
type Options struct {
	// DefaultSpeed is used when walk is called without a speed.
	DefaultSpeed float64
	// Origin is where the walker spawned. position() reports Origin plus
	// every walk the script has completed.
	Origin cp.Vector
}

// Script is a compiled behavior script. Compiled scripts are immutable and may
// back any number of programs.
type Script interface {
	Name() string
	Body(opts Options) behavior.Body
}

// Compile picks an engine from the file extension of name.
func Compile(name string, src []byte) (Script, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".tengo":
		return compileTengo(name, src)
	case ".lua":
		return compileLua(name, src)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, name)
	}
}

// IsScript reports whether path has an extension Compile understands.
func IsScript(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".tengo" || ext == ".lua"
}

// logLine logs the first part as the message and the rest as detail.
func logLine(log *zap.Logger, parts []string) {
	if len(parts) == 0 {
		return
	}
	if len(parts) == 1 {
		log.Info(parts[0])
		return
	}
	log.Info(parts[0], zap.String("detail", strings.Join(parts[1:], " ")))
}
