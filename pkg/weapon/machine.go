// pkg/weapon/machine.go
package weapon

// StateHooks defines the behavior of one state. Next must be pure: it
// inspects state and returns the successor without side effects, so a
// transition decision can be re-evaluated safely.
type StateHooks[S comparable] struct {
	Enter  func()
	Exit   func()
	Update func(deltaTime float64)
	Next   func() (S, bool)
}

// Machine is a synchronous finite state machine keyed by a state enum.
// Each tick runs the current state's Update, then asks Next for a
// transition and performs Exit and Enter in order. Enter hooks that
// request an immediate follow-up transition are honored on the same
// tick, so one-tick states work without a frame of lag.
type Machine[S comparable] struct {
	states  map[S]StateHooks[S]
	current S
	started bool
}

// NewMachine creates a machine that will start in the given state
func NewMachine[S comparable](initial S) *Machine[S] {
	return &Machine[S]{
		states:  make(map[S]StateHooks[S]),
		current: initial,
	}
}

// Register binds hooks to a state. Re-registering replaces them.
func (m *Machine[S]) Register(state S, hooks StateHooks[S]) {
	m.states[state] = hooks
}

// Start enters the initial state. Calling Start twice is a no-op.
func (m *Machine[S]) Start() {
	if m.started {
		return
	}
	m.started = true
	if hooks, ok := m.states[m.current]; ok && hooks.Enter != nil {
		hooks.Enter()
	}
	m.settle()
}

// Current returns the active state
func (m *Machine[S]) Current() S {
	return m.current
}

// Update advances the active state and follows any transition it
// requests.
func (m *Machine[S]) Update(deltaTime float64) {
	if !m.started {
		return
	}
	if hooks, ok := m.states[m.current]; ok && hooks.Update != nil {
		hooks.Update(deltaTime)
	}
	m.settle()
}

// Transition forces a state change, running Exit and Enter hooks
func (m *Machine[S]) Transition(to S) {
	if to == m.current {
		return
	}
	if hooks, ok := m.states[m.current]; ok && hooks.Exit != nil {
		hooks.Exit()
	}
	m.current = to
	if hooks, ok := m.states[to]; ok && hooks.Enter != nil {
		hooks.Enter()
	}
}

// settle follows Next transitions until the machine is stable.
// Bounded to keep a buggy state pair from livelocking the tick.
func (m *Machine[S]) settle() {
	for i := 0; i < 8; i++ {
		hooks, ok := m.states[m.current]
		if !ok || hooks.Next == nil {
			return
		}
		next, transition := hooks.Next()
		if !transition || next == m.current {
			return
		}
		m.Transition(next)
	}
}
