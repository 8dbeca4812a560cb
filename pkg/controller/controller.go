// Package controller integrates the layout engine with host application
// code. A Controller owns one mounted layout tree: it loads and reloads XML
// sources, registers for reload signals, and routes layout errors either up
// a containment chain of controllers or into a visible error overlay.
//
// Controllers follow the framework's single-threaded model: every method is
// meant for the UI-owning goroutine. Asynchronous loads read and parse off
// that goroutine and complete through the controller's dispatch function.
package controller

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/go-stencil/stencil/pkg/backend"
	"github.com/go-stencil/stencil/pkg/errors"
	"github.com/go-stencil/stencil/pkg/geometry"
	"github.com/go-stencil/stencil/pkg/layout"
	"github.com/go-stencil/stencil/pkg/markup"
	"github.com/go-stencil/stencil/pkg/reload"
)

// LoadOptions carry the inputs of a layout load.
type LoadOptions struct {
	// State seeds the root node's state.
	State map[string]any
	// Constants seed the root node's constants.
	Constants map[string]any
	// RelativeBase overrides the directory relative resource paths resolve
	// against; it defaults to the layout file's directory.
	RelativeBase string
}

// Controller owns a layout tree mounted into one container view.
type Controller struct {
	factory   backend.Factory
	container backend.View
	bounds    geometry.Rect

	// parent forms the containment chain: reload signals forward to the
	// outermost owner and unclaimed errors escalate toward it.
	parent *Controller
	// claim, when set, lets this controller take responsibility for a
	// descendant's layout error.
	claim func(*errors.Error) bool

	// dispatch returns work to the calling context for async completion.
	// The default invokes synchronously.
	dispatch func(func())

	root       *layout.Node
	source     string
	opts       LoadOptions
	overlay    *errorOverlay
	registered bool
}

// New creates a controller mounting into the given container and bounds.
func New(factory backend.Factory, container backend.View, bounds geometry.Rect) *Controller {
	return &Controller{
		factory:   factory,
		container: container,
		bounds:    bounds,
		dispatch:  func(f func()) { f() },
	}
}

// SetParent links this controller into a containment chain.
func (c *Controller) SetParent(parent *Controller) {
	c.parent = parent
}

// SetErrorClaimer installs a handler that may claim descendant errors.
// Returning true stops the escalation.
func (c *Controller) SetErrorClaimer(claim func(*errors.Error) bool) {
	c.claim = claim
}

// SetDispatch installs the function async completions are delivered
// through, typically the host's run-on-UI-thread primitive.
func (c *Controller) SetDispatch(dispatch func(func())) {
	if dispatch != nil {
		c.dispatch = dispatch
	}
}

// Root returns the currently loaded node tree, or nil.
func (c *Controller) Root() *layout.Node {
	return c.root
}

// LoadLayout reads, parses, mounts a layout XML file, and registers the
// controller for reload signals. On failure the error is routed through
// HandleLayoutError and returned.
func (c *Controller) LoadLayout(path string, opts LoadOptions) (*layout.Node, *errors.Error) {
	if opts.RelativeBase == "" {
		opts.RelativeBase = filepath.Dir(path)
	}
	node, err := markup.LoadFile(path, markup.Options{
		State:        opts.State,
		Constants:    opts.Constants,
		RelativeBase: opts.RelativeBase,
	})
	if err != nil {
		c.HandleLayoutError(err)
		return nil, err
	}
	c.source = path
	c.opts = opts
	return c.attach(node)
}

// LoadLayoutAsync reads and parses off the calling goroutine, then builds,
// mounts, and invokes done via the controller's dispatch function. done may
// be nil.
func (c *Controller) LoadLayoutAsync(path string, opts LoadOptions, done func(*layout.Node, *errors.Error)) {
	if opts.RelativeBase == "" {
		opts.RelativeBase = filepath.Dir(path)
	}
	go func() {
		data, readErr := os.ReadFile(path)
		var spec *markup.Spec
		var err *errors.Error
		if readErr != nil {
			err = errors.Wrap("controller.LoadLayoutAsync", readErr)
		} else {
			spec, err = markup.ParseDocument(bytes.NewReader(data))
		}
		c.dispatch(func() {
			if err != nil {
				c.HandleLayoutError(err)
				if done != nil {
					done(nil, err)
				}
				return
			}
			node, buildErr := markup.Build(spec, markup.Options{
				State:        opts.State,
				Constants:    opts.Constants,
				RelativeBase: opts.RelativeBase,
			})
			if buildErr != nil {
				c.HandleLayoutError(buildErr)
				if done != nil {
					done(nil, buildErr)
				}
				return
			}
			c.source = path
			c.opts = opts
			mounted, mountErr := c.attach(node)
			if done != nil {
				done(mounted, mountErr)
			}
		})
	}()
}

// LoadLayoutFromNode mounts an explicitly constructed node tree, bypassing
// XML. Hard reloads are unavailable for such trees.
func (c *Controller) LoadLayoutFromNode(node *layout.Node) (*layout.Node, *errors.Error) {
	c.source = ""
	c.opts = LoadOptions{}
	return c.attach(node)
}

func (c *Controller) attach(node *layout.Node) (*layout.Node, *errors.Error) {
	if c.root != nil {
		c.root.Unmount()
	}
	node.SetFactory(c.factory)
	c.root = node
	c.register()
	if err := node.Mount(c.container, c.bounds); err != nil {
		c.HandleLayoutError(err)
		return nil, err
	}
	c.DismissError()
	return node, nil
}

func (c *Controller) register() {
	if c.registered {
		return
	}
	c.registered = true
	reload.Register(c)
}

// ReloadLayout implements reload.Observer. A nested controller forwards the
// signal to the outermost owner of its containment chain, so reload always
// happens at the root.
func (c *Controller) ReloadLayout(hard bool) {
	if c.parent != nil {
		c.parent.ReloadLayout(hard)
		return
	}
	c.reloadLocal(hard)
}

func (c *Controller) reloadLocal(hard bool) {
	if hard && c.source != "" {
		c.LoadLayout(c.source, c.opts)
		return
	}
	if c.root == nil {
		return
	}
	// Soft reload: drop every cached value and re-apply what changed.
	c.root.InvalidateAll()
	if !c.root.Mounted() {
		return
	}
	if err := c.root.Update(); err != nil {
		c.HandleLayoutError(err)
	}
}

// Reloadable reports whether a hard reload can re-run the pipeline from
// source.
func (c *Controller) Reloadable() bool {
	return c.source != ""
}

// HandleLayoutError reports err, then walks the containment chain root-ward
// for an ancestor willing to claim it. An unclaimed error is displayed by
// this controller as a visible overlay.
func (c *Controller) HandleLayoutError(err *errors.Error) {
	if err == nil {
		return
	}
	errors.Report(err)
	for ancestor := c.parent; ancestor != nil; ancestor = ancestor.parent {
		if ancestor.claim != nil && ancestor.claim(err) {
			return
		}
	}
	c.displayError(err)
}
