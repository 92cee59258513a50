package voice

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidPath is returned for modulation targets that are not of the
// form "component.param".
var ErrInvalidPath = errors.New("invalid parameter path")

// Path addresses one parameter of one component.
type Path struct {
	Component string
	Param     string
}

// ParsePath parses "component.param". Exactly two non-empty segments are
// required.
func ParsePath(s string) (Path, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Path{}, fmt.Errorf("%w: %q", ErrInvalidPath, s)
	}
	return Path{Component: parts[0], Param: parts[1]}, nil
}

func (p Path) String() string {
	if p.IsZero() {
		return ""
	}
	return p.Component + "." + p.Param
}

// IsZero reports whether the path is unset.
func (p Path) IsZero() bool {
	return p.Component == "" && p.Param == ""
}

// Route is the default wiring of a modulator: which of its outputs feeds
// which target. A zero Target means the target must come from the
// modulator's own "target" setting.
type Route struct {
	Output string
	Target Path
}
