package export

import "github.com/saravenpi/firewood/internal/scene"

type hidden struct {
	node    *scene.Node
	display scene.Display
}

// hideInteractive sets display:none on every interactive node under root and
// returns a function that puts the previous values back. The returned
// function is safe to call more than once.
func hideInteractive(root *scene.Node) (restore func()) {
	var saved []hidden
	root.Walk(func(n *scene.Node) bool {
		if scene.IsInteractive(n) {
			saved = append(saved, hidden{node: n, display: n.Style.Display})
			n.Style.Display = scene.DisplayNone
		}
		return true
	})

	return func() {
		for i := len(saved) - 1; i >= 0; i-- {
			saved[i].node.Style.Display = saved[i].display
		}
		saved = nil
	}
}
