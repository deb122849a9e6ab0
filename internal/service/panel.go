package service

import "sync"

// Panel is the open/closed state of one creation panel. Each form owns its panel, so opening
// or closing it never affects another session.
type Panel struct {
	mu      sync.RWMutex
	open    bool
	onClose []func()
}

// NewPanel returns a closed panel.
func NewPanel() *Panel {
	return &Panel{}
}

func (p *Panel) Open() {
	p.mu.Lock()
	p.open = true
	p.mu.Unlock()
}

// Close closes the panel and runs the registered close callbacks once per transition.
func (p *Panel) Close() {
	p.mu.Lock()
	wasOpen := p.open
	p.open = false
	callbacks := append([]func(){}, p.onClose...)
	p.mu.Unlock()
	if !wasOpen {
		return
	}
	for _, fn := range callbacks {
		fn()
	}
}

func (p *Panel) IsOpen() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.open
}

// OnClose registers fn to run whenever the panel goes from open to closed.
func (p *Panel) OnClose(fn func()) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	p.onClose = append(p.onClose, fn)
	p.mu.Unlock()
}
