package scene

// Classes and attributes that flag editing affordances. Nodes carrying any
// of them never appear in an exported screenshot.
const (
	ClassInteractiveInput = "interactive-input"
	ClassInlineControls   = "inline-controls"
	ClassEditMode         = "edit-mode"
	AttrHideInScreenshot  = "data-hide-in-screenshot"
)

// ChatContentID is the id of the subtree that gets exported.
const ChatContentID = "chat-content"

// IsInteractive reports whether n is an editing affordance.
func IsInteractive(n *Node) bool {
	return n.HasClass(ClassInteractiveInput) ||
		n.HasClass(ClassInlineControls) ||
		n.HasClass(ClassEditMode) ||
		n.HasAttr(AttrHideInScreenshot)
}
