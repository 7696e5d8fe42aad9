package store

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Simplici0/quotecalc/internal/component"
)

// Memory keeps instances in process memory. It is used by the CLI and tests.
type Memory struct {
	mu        sync.RWMutex
	instances map[component.ID]*component.Instance
	listeners listeners
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{instances: make(map[component.ID]*component.Instance)}
}

// ComponentInstance returns a copy of the instance for id. A component that
// was never touched is reported disabled with no parameters.
func (m *Memory) ComponentInstance(id component.ID) (component.Instance, error) {
	if !known(id) {
		return component.Instance{}, fmt.Errorf("%w: %s", ErrUnknownComponent, id)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instances[id]
	if !ok {
		return component.Instance{ID: id, Params: component.Params{}}, nil
	}
	return copyInstance(inst), nil
}

// EnabledComponents returns the enabled IDs in sorted order.
func (m *Memory) EnabledComponents() ([]component.ID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []component.ID
	for id, inst := range m.instances {
		if inst.Enabled {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// Instances returns copies of every instance, sorted by ID.
func (m *Memory) Instances() ([]component.Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]component.Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		out = append(out, copyInstance(inst))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SetParams replaces the parameters of id.
func (m *Memory) SetParams(id component.ID, params component.Params) error {
	if !known(id) {
		return fmt.Errorf("%w: %s", ErrUnknownComponent, id)
	}
	m.mu.Lock()
	m.instance(id).Params = params.Clone()
	m.mu.Unlock()

	m.listeners.emit(Event{Type: EventParamsChanged, Component: id})
	return nil
}

// SetEnabled enables or disables id. Nothing is emitted when the state does
// not change.
func (m *Memory) SetEnabled(id component.ID, enabled bool) error {
	if !known(id) {
		return fmt.Errorf("%w: %s", ErrUnknownComponent, id)
	}
	m.mu.Lock()
	inst := m.instance(id)
	changed := inst.Enabled != enabled
	inst.Enabled = enabled
	m.mu.Unlock()

	if changed {
		m.listeners.emit(Event{Type: enabledEvent(enabled), Component: id})
	}
	return nil
}

// Clear discards every instance.
func (m *Memory) Clear() error {
	m.mu.Lock()
	m.instances = make(map[component.ID]*component.Instance)
	m.mu.Unlock()

	m.listeners.emit(Event{Type: EventCleared})
	return nil
}

// PublishResult stores res as the last result of id.
func (m *Memory) PublishResult(id component.ID, res component.Result) error {
	if !known(id) {
		return fmt.Errorf("%w: %s", ErrUnknownComponent, id)
	}
	copied := res.Clone()
	m.mu.Lock()
	m.instance(id).LastResult = &copied
	m.mu.Unlock()

	m.listeners.emit(Event{Type: EventResultPublished, Component: id})
	return nil
}

// Subscribe registers fn and returns a function that removes it.
func (m *Memory) Subscribe(fn Listener) func() {
	return m.listeners.subscribe(fn)
}

// instance returns the instance for id, creating it. Callers hold m.mu.
func (m *Memory) instance(id component.ID) *component.Instance {
	inst, ok := m.instances[id]
	if !ok {
		inst = &component.Instance{ID: id, Params: component.Params{}}
		m.instances[id] = inst
	}
	return inst
}

func copyInstance(inst *component.Instance) component.Instance {
	out := *inst
	out.Params = inst.Params.Clone()
	if inst.LastResult != nil {
		r := inst.LastResult.Clone()
		out.LastResult = &r
	}
	return out
}

func enabledEvent(enabled bool) EventType {
	if enabled {
		return EventEnabled
	}
	return EventDisabled
}
