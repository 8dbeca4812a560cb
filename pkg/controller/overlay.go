package controller

import (
	"strings"

	"github.com/go-stencil/stencil/pkg/errors"
	"github.com/go-stencil/stencil/pkg/layout"
)

// errorOverlay is the currently displayed error, if any. The overlay tree is
// built in memory, bypassing the XML pipeline, and mounted through the
// normal mount contract.
type errorOverlay struct {
	node *layout.Node
	err  *errors.Error
}

// displayError mounts an error overlay. A repeated error equal to the one
// already displayed only replays a visual pulse instead of rebuilding the
// overlay.
func (c *Controller) displayError(err *errors.Error) {
	if c.overlay != nil && c.overlay.err.Equal(err) {
		c.pulseOverlay()
		return
	}
	c.DismissError()

	node := buildOverlayTree(err, c.Reloadable())
	node.SetFactory(c.factory)
	if mountErr := node.Mount(c.container, c.bounds); mountErr != nil {
		// The overlay itself failed to mount; stderr is all that is left.
		errors.Report(mountErr)
		return
	}
	c.overlay = &errorOverlay{node: node, err: err}
}

// pulseOverlay replays the overlay's attention pulse by bumping its pulse
// state, which invalidates and re-applies the flash property.
func (c *Controller) pulseOverlay() {
	pulse := 0.0
	if v, ok := c.overlay.node.State("pulse"); ok {
		if n, err := v.AsNumber(); err == nil {
			pulse = n
		}
	}
	c.overlay.node.SetState("pulse", pulse+1)
	if err := c.overlay.node.Update(); err != nil {
		errors.Report(err)
	}
}

// DismissError unmounts the displayed overlay, if any, through the normal
// unmount contract.
func (c *Controller) DismissError() {
	if c.overlay == nil {
		return
	}
	c.overlay.node.Unmount()
	c.overlay = nil
}

// DisplayedError returns the error currently shown, or nil.
func (c *Controller) DisplayedError() *errors.Error {
	if c.overlay == nil {
		return nil
	}
	return c.overlay.err
}

// buildOverlayTree constructs the overlay node tree: a dimmed backdrop, the
// error message, and a reload affordance when the context is reloadable.
func buildOverlayTree(err *errors.Error, reloadable bool) *layout.Node {
	message := err.Error()

	children := []*layout.Node{
		layout.MustNode("label", layout.Config{
			Name: "message",
			Expressions: map[string]string{
				"top":       "15%",
				"left":      "20",
				"width":     "100% - 40",
				"text":      escapeBraces(message),
				"textColor": "'white'",
			},
		}),
	}
	if reloadable {
		children = append(children, layout.MustNode("button", layout.Config{
			Name: "reload",
			Expressions: map[string]string{
				"top":   "message.bottom + 20",
				"left":  "20",
				"width": "100% - 40",
				"text":  "Tap to reload",
			},
		}))
	}

	return layout.MustNode("overlay", layout.Config{
		Name:  "errorOverlay",
		State: map[string]any{"pulse": 0},
		Expressions: map[string]string{
			"width":           "100%",
			"height":          "100%",
			"backgroundColor": "rgba(176, 0, 32, 0.88)",
			"flash":           "pulse",
		},
		Children: children,
	})
}

// escapeBraces doubles braces so an error message containing { or } renders
// literally through the text template.
func escapeBraces(s string) string {
	s = strings.ReplaceAll(s, "{", "{{")
	return strings.ReplaceAll(s, "}", "}}")
}
