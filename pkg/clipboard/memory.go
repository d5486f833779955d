package clipboard

import "sync"

// 🧪 MemoryText is an in-process TextClipboard, used by tests and headless
// builds where no system clipboard is available.
type MemoryText struct {
	mu   sync.Mutex
	text string
}

func NewMemoryText() *MemoryText {
	return &MemoryText{}
}

func (m *MemoryText) Write(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

func (m *MemoryText) Read() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}
