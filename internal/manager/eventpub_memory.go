package manager

import "sync"

// MemoryPublisher records events in publish order. Tests use it to assert
// on the run lifecycle.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher { return &MemoryPublisher{} }

func (p *MemoryPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

// Events returns a copy of everything published so far.
func (p *MemoryPublisher) Events() []Event {
	return p.filter(func(Event) bool { return true })
}

// ForRun returns the events carrying runID.
func (p *MemoryPublisher) ForRun(runID string) []Event {
	return p.filter(func(e Event) bool { return e.RunID == runID })
}

// Count returns how many events named name were published.
func (p *MemoryPublisher) Count(name string) int {
	return len(p.filter(func(e Event) bool { return e.Name == name }))
}

// Names returns the event names in publish order.
func (p *MemoryPublisher) Names() []string {
	evs := p.Events()
	out := make([]string, len(evs))
	for i, e := range evs {
		out[i] = e.Name
	}
	return out
}

func (p *MemoryPublisher) filter(keep func(Event) bool) []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []Event
	for _, e := range p.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
