package credstore

import "sync"

// MemoryStore keeps state in a process-local map. It is the default
// backend and the one used by tests.
type MemoryStore struct {
	hub
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hub:    newHub(),
		values: make(map[string][]byte),
	}
}

func (m *MemoryStore) read(key string) []byte {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.values[key]
	if !ok {
		return nil
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return cp
}

func (m *MemoryStore) write(key string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if data == nil {
		delete(m.values, key)
		return
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.values[key] = cp
}

func (m *MemoryStore) ReadToken() string { return string(m.read(keyToken)) }

func (m *MemoryStore) WriteToken(token string) {
	if token == "" {
		m.write(keyToken, nil)
	} else {
		m.write(keyToken, []byte(token))
	}
	m.emitSessionChanged()
}

func (m *MemoryStore) ReadUser() *User { return decodeUser(m.read(keyUser)) }

func (m *MemoryStore) WriteUser(u *User) { m.write(keyUser, encodeUser(u)) }

func (m *MemoryStore) ReadGuestCart() []byte { return m.read(keyGuestCart) }

func (m *MemoryStore) WriteGuestCart(data []byte) { m.write(keyGuestCart, data) }

func (m *MemoryStore) ReadLikes() []byte { return m.read(keyLikes) }

func (m *MemoryStore) WriteLikes(data []byte) { m.write(keyLikes, data) }

func (m *MemoryStore) ClearAll() {
	m.mu.Lock()
	delete(m.values, keyToken)
	delete(m.values, keyUser)
	m.mu.Unlock()
	m.emitSessionChanged()
}
