// Package backend defines the boundary between the layout engine and the
// native view toolkit. A View is the handle to one native view object; a
// Factory creates views for the node types a layout names. The engine never
// touches the toolkit directly, so any platform (or the headless test
// backend) can sit behind these interfaces.
package backend

import (
	"fmt"
	"sync"

	"github.com/go-stencil/stencil/pkg/expr"
	"github.com/go-stencil/stencil/pkg/geometry"
)

// View is the native view handle associated with a mounted node. Exactly one
// View is attached per mounted node; all methods are called from the
// UI-owning goroutine only.
type View interface {
	// SetFrame positions the view within its parent's coordinate space.
	SetFrame(frame geometry.Rect)
	// SetProperty applies a resolved property value. A backend that cannot
	// accept the value returns an error, which surfaces as a mount failure.
	SetProperty(name string, value expr.Value) error
	// InsertChild attaches a child view at the given index.
	InsertChild(child View, index int)
	// RemoveChild detaches a previously inserted child view.
	RemoveChild(child View)
}

// Factory creates native views by node type name.
type Factory interface {
	Create(viewType string) (View, error)
}

var (
	defaultMu      sync.RWMutex
	defaultFactory Factory
)

// SetDefaultFactory installs the process-wide view factory used by node
// trees that have no explicit factory.
func SetDefaultFactory(f Factory) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultFactory = f
}

// DefaultFactory returns the installed process-wide factory, or nil.
func DefaultFactory() Factory {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultFactory
}

// Create builds a view with the default factory.
func Create(viewType string) (View, error) {
	f := DefaultFactory()
	if f == nil {
		return nil, fmt.Errorf("no view factory installed")
	}
	return f.Create(viewType)
}
