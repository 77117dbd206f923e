// Package panel holds the open/closed state of the notification dropdown.
package panel

// Target is where a click landed relative to the widget.
type Target int

const (
	// TargetOutside is anywhere outside the root that encloses the trigger
	// and the panel.
	TargetOutside Target = iota
	// TargetTrigger is the bell button.
	TargetTrigger
	// TargetPanel is the dropdown itself.
	TargetPanel
	// TargetRoot is inside the root but on neither the trigger nor the panel.
	TargetRoot
)

// Controller toggles the dropdown. Only the trigger opens it and only an
// outside click (or the trigger again) closes it.
type Controller struct {
	visible bool
}

// Visible reports whether the panel is shown.
func (c *Controller) Visible() bool {
	return c.visible
}

// Toggle flips visibility, as activating the trigger does.
func (c *Controller) Toggle() {
	c.visible = !c.visible
}

// Click routes a click. A trigger click is consumed by the toggle and never
// reaches the outside-close check.
func (c *Controller) Click(target Target) {
	switch target {
	case TargetTrigger:
		c.Toggle()
	case TargetOutside:
		c.visible = false
	}
}
