package voice

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cwbudde/algo-voice/dsp/node"
)

var (
	// ErrBundlePath is returned for paths that name only a component.
	ErrBundlePath = errors.New("path addresses a whole component")
	// ErrPathNotFound is returned when a path segment does not resolve.
	ErrPathNotFound = errors.New("path not found")
)

// ResolvePath resolves "componentId.sub.path" against components.
//
// The second segment is looked up in the bundle's ModInputs, then its
// ModOutputs, then its node roles. A third segment names a parameter of
// the node found by the second. The result is a *node.Param, a
// node.Output or a node.Node.
func ResolvePath(components map[string]*NodeBundle, path string) (any, error) {
	segs := strings.Split(path, ".")
	if len(segs) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrBundlePath, path)
	}
	b := components[segs[0]]
	if b == nil {
		return nil, fmt.Errorf("%w: component %q", ErrPathNotFound, segs[0])
	}

	key := segs[1]
	if len(segs) == 2 {
		if p := b.ModInputs[key]; p != nil {
			return p, nil
		}
		if o := b.ModOutputs[key]; o != nil {
			return o, nil
		}
	}
	n := b.Nodes[key]
	if n == nil {
		return nil, fmt.Errorf("%w: %q", ErrPathNotFound, path)
	}
	switch len(segs) {
	case 2:
		return n, nil
	case 3:
		if pl, ok := n.(node.ParamLookup); ok {
			if p, ok := pl.Param(segs[2]); ok && p != nil {
				return p, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrPathNotFound, path)
}

// FindParamByPath is ResolvePath without the reason: anything that does
// not resolve yields nil.
func FindParamByPath(components map[string]*NodeBundle, path string) any {
	v, _ := ResolvePath(components, path)
	return v
}

// resolveParam resolves a modulation target path to a param.
func resolveParam(components map[string]*NodeBundle, p Path) (*node.Param, error) {
	v, err := ResolvePath(components, p.String())
	if err != nil {
		return nil, err
	}
	param, ok := v.(*node.Param)
	if !ok {
		return nil, fmt.Errorf("%w: %s is not a parameter", ErrPathNotFound, p)
	}
	return param, nil
}
