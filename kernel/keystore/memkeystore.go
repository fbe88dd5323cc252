package keystore

import (
	"fmt"
	"sort"
	"sync"
)

// memoryKeyStore is a simple in-memory Keystore implementation.
type memoryKeyStore struct {
	keys   map[string]PrivKey
	keysLk sync.Mutex
}

// NewMemoryKeyStore constructs in-memory Keystore.
func NewMemoryKeyStore() Keystore {
	return &memoryKeyStore{
		keys: make(map[string]PrivKey),
	}
}

func (m *memoryKeyStore) Put(n string, k PrivKey) error {
	m.keysLk.Lock()
	defer m.keysLk.Unlock()

	if _, ok := m.keys[n]; ok {
		return fmt.Errorf("keystore: key '%s' already exists", n)
	}
	m.keys[n] = k
	return nil
}

func (m *memoryKeyStore) Get(n string) (PrivKey, error) {
	m.keysLk.Lock()
	defer m.keysLk.Unlock()

	k, ok := m.keys[n]
	if !ok {
		return PrivKey{}, ErrKeyNotFound
	}
	return k, nil
}

func (m *memoryKeyStore) Delete(n string) error {
	m.keysLk.Lock()
	defer m.keysLk.Unlock()

	if _, ok := m.keys[n]; !ok {
		return ErrKeyNotFound
	}
	delete(m.keys, n)
	return nil
}

func (m *memoryKeyStore) List() ([]string, error) {
	m.keysLk.Lock()
	defer m.keysLk.Unlock()

	keys := make([]string, 0, len(m.keys))
	for k := range m.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}
