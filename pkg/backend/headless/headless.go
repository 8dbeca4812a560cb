// Package headless provides an in-memory view backend. It records every
// frame and property write, which makes it the backend for tests and for
// the stencil CLI's static layout checks.
package headless

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/go-stencil/stencil/pkg/backend"
	"github.com/go-stencil/stencil/pkg/expr"
	"github.com/go-stencil/stencil/pkg/geometry"
)

// Backend creates recording views. The zero value is ready to use.
type Backend struct {
	rejected map[string]map[string]bool
	created  atomic.Int64
}

// New returns an empty headless backend.
func New() *Backend {
	return &Backend{}
}

// Reject makes every subsequently created view of the given type fail
// SetProperty for the given property name. Used to exercise mount-failure
// paths.
func (b *Backend) Reject(viewType, property string) {
	if b.rejected == nil {
		b.rejected = make(map[string]map[string]bool)
	}
	if b.rejected[viewType] == nil {
		b.rejected[viewType] = make(map[string]bool)
	}
	b.rejected[viewType][property] = true
}

// Created returns the number of views this backend has created.
func (b *Backend) Created() int64 {
	return b.created.Load()
}

// Create builds a recording view. Every view type name is accepted.
func (b *Backend) Create(viewType string) (backend.View, error) {
	b.created.Add(1)
	return &View{
		Type:    viewType,
		Props:   make(map[string]expr.Value),
		Writes:  make(map[string]int),
		backend: b,
	}, nil
}

// View records everything the layout engine applies to it.
type View struct {
	// Type is the node type the view was created for.
	Type string
	// Frame is the last applied frame.
	Frame geometry.Rect
	// FrameWrites counts SetFrame calls.
	FrameWrites int
	// Props holds the last applied value per property.
	Props map[string]expr.Value
	// Writes counts SetProperty calls per property.
	Writes map[string]int
	// Children are the currently attached child views, in order.
	Children []backend.View

	backend *Backend
}

// SetFrame records the view's frame.
func (v *View) SetFrame(frame geometry.Rect) {
	v.Frame = frame
	v.FrameWrites++
}

// SetProperty records a property write, or fails if the backend was told to
// reject this view type/property pair.
func (v *View) SetProperty(name string, value expr.Value) error {
	if v.backend != nil && v.backend.rejected[v.Type][name] {
		return fmt.Errorf("%s does not accept property %q", v.Type, name)
	}
	v.Props[name] = value
	v.Writes[name]++
	return nil
}

// InsertChild attaches a child view at the given index.
func (v *View) InsertChild(child backend.View, index int) {
	if index < 0 || index > len(v.Children) {
		index = len(v.Children)
	}
	v.Children = slices.Insert(v.Children, index, child)
}

// RemoveChild detaches a child view.
func (v *View) RemoveChild(child backend.View) {
	for i, c := range v.Children {
		if c == child {
			v.Children = slices.Delete(v.Children, i, i+1)
			return
		}
	}
}
