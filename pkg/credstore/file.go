package credstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// FileStore persists state as a single JSON document on disk, giving a
// CLI or daemon host the durability a browser gets from local storage.
// Write failures are swallowed: losing a cached credential is
// recoverable (the session falls back to anonymous), whereas failing
// the calling operation is not acceptable for best-effort state.
type FileStore struct {
	hub
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store backed by path. The parent directory is
// created if missing.
func NewFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return &FileStore{hub: newHub(), path: path}, nil
}

func (f *FileStore) load() map[string]json.RawMessage {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return map[string]json.RawMessage{}
	}
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil || doc == nil {
		// Corrupt file reads as empty state.
		return map[string]json.RawMessage{}
	}
	return doc
}

func (f *FileStore) save(doc map[string]json.RawMessage) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return
	}
	_ = os.Rename(tmp, f.path)
}

func (f *FileStore) read(key string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	raw, ok := f.load()[key]
	if !ok {
		return nil
	}
	return raw
}

func (f *FileStore) write(key string, data []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc := f.load()
	if data == nil {
		delete(doc, key)
	} else {
		doc[key] = data
	}
	f.save(doc)
}

// Strings are stored as JSON string values so the file stays a valid
// JSON document.

func (f *FileStore) ReadToken() string {
	var token string
	if err := json.Unmarshal(f.read(keyToken), &token); err != nil {
		return ""
	}
	return token
}

func (f *FileStore) WriteToken(token string) {
	if token == "" {
		f.write(keyToken, nil)
	} else {
		raw, _ := json.Marshal(token)
		f.write(keyToken, raw)
	}
	f.emitSessionChanged()
}

func (f *FileStore) ReadUser() *User { return decodeUser(f.read(keyUser)) }

func (f *FileStore) WriteUser(u *User) { f.write(keyUser, encodeUser(u)) }

func (f *FileStore) ReadGuestCart() []byte { return f.read(keyGuestCart) }

func (f *FileStore) WriteGuestCart(data []byte) { f.write(keyGuestCart, data) }

func (f *FileStore) ReadLikes() []byte { return f.read(keyLikes) }

func (f *FileStore) WriteLikes(data []byte) { f.write(keyLikes, data) }

func (f *FileStore) ClearAll() {
	f.mu.Lock()
	doc := f.load()
	delete(doc, keyToken)
	delete(doc, keyUser)
	f.save(doc)
	f.mu.Unlock()
	f.emitSessionChanged()
}
