package layout

import (
	"github.com/go-stencil/stencil/pkg/backend"
	"github.com/go-stencil/stencil/pkg/errors"
	"github.com/go-stencil/stencil/pkg/expr"
	"github.com/go-stencil/stencil/pkg/geometry"
)

// Mount attaches the tree rooted at n into a container view, resolving and
// applying every property in dependency-safe order (parents before children,
// so children's percentage expressions can read parent geometry). Mount is
// atomic: on any failure every view attached by this call is detached again
// before the error returns.
//
// container may be nil for a free-standing tree (tests, static checks); the
// bounds still seed the root's percentage base.
func (n *Node) Mount(container backend.View, bounds geometry.Rect) *errors.Error {
	if n.parent != nil {
		err := errors.New("layout.Mount", errors.KindMount,
			"cannot mount non-root node")
		err.Node = n.Path()
		return err
	}
	if n.mounted {
		err := errors.New("layout.Mount", errors.KindMount,
			"node is already mounted; unmount first")
		err.Node = n.Path()
		return err
	}
	n.bounds = bounds
	if err := n.mountInto(container, 0); err != nil {
		n.detachViews()
		n.evaluator().invalidateSubtree(n)
		return err
	}
	return nil
}

func (n *Node) mountInto(container backend.View, index int) *errors.Error {
	frame, values, err := n.resolveAll()
	if err != nil {
		return err
	}

	if n.view == nil {
		factory := n.treeFactory()
		if factory == nil {
			err := errors.New("layout.Mount", errors.KindMount,
				"no view factory configured for %q", n.viewType)
			err.Node = n.Path()
			return err
		}
		view, createErr := factory.Create(n.viewType)
		if createErr != nil {
			err := errors.Wrap("layout.Mount", createErr)
			err.Kind = errors.KindMount
			err.Node = n.Path()
			return err
		}
		n.view = view
	}

	if err := n.apply(frame, values); err != nil {
		return err
	}

	if container != nil {
		container.InsertChild(n.view, index)
	}
	n.container = container
	n.mounted = true

	for i, child := range n.children {
		if err := child.mountInto(n.view, i); err != nil {
			return err
		}
	}
	return nil
}

// resolveAll resolves the node's frame and every expression property, before
// anything touches the view.
func (n *Node) resolveAll() (geometry.Rect, map[string]expr.Value, *errors.Error) {
	frame, err := n.Frame()
	if err != nil {
		return geometry.Rect{}, nil, err
	}
	values := make(map[string]expr.Value, len(n.expressions))
	for _, prop := range n.Properties() {
		if geometryProps[prop] {
			continue
		}
		v, err := n.Resolve(prop)
		if err != nil {
			return geometry.Rect{}, nil, err
		}
		values[prop] = v
	}
	return frame, values, nil
}

// Frame resolves the node's geometry into a rectangle in the parent's
// coordinate space.
func (n *Node) Frame() (geometry.Rect, *errors.Error) {
	ev := n.evaluator()
	var dims [4]float64
	for i, name := range [...]string{"left", "top", "width", "height"} {
		v, err := ev.resolveGeometry(n, name)
		if err != nil {
			return geometry.Rect{}, err
		}
		num, nerr := v.AsNumber()
		if nerr != nil {
			layoutErr := errors.Wrap("layout.Frame", nerr)
			layoutErr.Node = n.Path()
			if e := n.expressions[name]; e != nil {
				layoutErr.Expression = e.Source()
			}
			return geometry.Rect{}, layoutErr
		}
		dims[i] = num
	}
	return geometry.RectFromLTWH(dims[0], dims[1], dims[2], dims[3]), nil
}

// apply writes the frame and property values to the view, skipping writes
// whose value already matches what the view last received.
func (n *Node) apply(frame geometry.Rect, values map[string]expr.Value) *errors.Error {
	if n.appliedFrame == nil || *n.appliedFrame != frame {
		n.view.SetFrame(frame)
		f := frame
		n.appliedFrame = &f
	}
	if n.applied == nil {
		n.applied = make(map[string]expr.Value, len(values))
	}
	for _, prop := range n.Properties() {
		if geometryProps[prop] {
			continue
		}
		value, ok := values[prop]
		if !ok {
			continue
		}
		if last, ok := n.applied[prop]; ok && last.Equal(value) {
			continue
		}
		if setErr := n.view.SetProperty(prop, value); setErr != nil {
			err := errors.Wrap("layout.apply", setErr)
			err.Kind = errors.KindMount
			err.Node = n.Path()
			if e := n.expressions[prop]; e != nil {
				err.Expression = e.Source()
			}
			return err
		}
		n.applied[prop] = value
	}
	return nil
}

// Update re-resolves any properties whose cached value was invalidated and
// re-applies only the ones that actually changed, then recurses into the
// children. The tree must be mounted.
func (n *Node) Update() *errors.Error {
	if !n.mounted {
		err := errors.New("layout.Update", errors.KindMount, "node is not mounted")
		err.Node = n.Path()
		return err
	}
	frame, values, err := n.resolveAll()
	if err != nil {
		return err
	}
	if err := n.apply(frame, values); err != nil {
		return err
	}
	for _, child := range n.children {
		if err := child.Update(); err != nil {
			return err
		}
	}
	return nil
}

// Unmount detaches the subtree's views and clears its caches. Expressions,
// state, and constants survive, so the node can be remounted without
// re-parsing.
func (n *Node) Unmount() {
	n.detachViews()
	n.evaluator().invalidateSubtree(n)
}

// detachViews removes views bottom-up. Children detach before the parent so
// a backend never sees a child outliving its parent's attachment.
func (n *Node) detachViews() {
	for _, child := range n.children {
		child.detachViews()
	}
	if n.view != nil && n.container != nil {
		n.container.RemoveChild(n.view)
	}
	n.container = nil
	n.mounted = false
	n.applied = nil
	n.appliedFrame = nil
}
