package session

import (
	"errors"
	"sync"

	"github.com/qmuntal/stateless"
)

// ErrExportInProgress is returned when an export is requested while another
// one is still running.
var ErrExportInProgress = errors.New("an export is already in progress")

const (
	stateIdle      = "Idle"
	stateExporting = "Exporting"

	triggerBegin  = "Begin"
	triggerFinish = "Finish"
)

// exportGuard is the busy flag of a session: Idle -> Exporting -> Idle.
type exportGuard struct {
	mu  sync.Mutex
	fsm *stateless.StateMachine
}

func newExportGuard() *exportGuard {
	fsm := stateless.NewStateMachine(stateIdle)
	fsm.Configure(stateIdle).
		Permit(triggerBegin, stateExporting)
	fsm.Configure(stateExporting).
		Permit(triggerFinish, stateIdle)
	return &exportGuard{fsm: fsm}
}

// begin moves the guard to Exporting. The returned release is safe to call
// more than once.
func (g *exportGuard) begin() (func(), error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.fsm.MustState() != stateIdle {
		return nil, ErrExportInProgress
	}
	if err := g.fsm.Fire(triggerBegin); err != nil {
		return nil, ErrExportInProgress
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			_ = g.fsm.Fire(triggerFinish)
		})
	}, nil
}

func (g *exportGuard) busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.fsm.MustState() == stateExporting
}
