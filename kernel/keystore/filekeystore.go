package keystore

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

type fileKeyStore struct {
	rootPath string
	keysLk   sync.Mutex
}

// NewFileKeyStore stores one JSON file per key under rootPath.
func NewFileKeyStore(rootPath string) (Keystore, error) {
	if err := ensureDir(rootPath); err != nil {
		return nil, err
	}
	return &fileKeyStore{rootPath: rootPath}, nil
}

func ensureDir(path string) error {
	err := os.MkdirAll(path, 0700)
	if err != nil && !os.IsExist(err) {
		return fmt.Errorf("keystore: failed to make a dir: %w", err)
	}
	return nil
}

func (f *fileKeyStore) keyPath(keyName string) (string, error) {
	if keyName == "" || keyName != filepath.Base(keyName) {
		return "", fmt.Errorf("keystore: invalid key name %q", keyName)
	}
	return filepath.Join(f.rootPath, keyName), nil
}

func (f *fileKeyStore) Get(keyName string) (PrivKey, error) {
	path, err := f.keyPath(keyName)
	if err != nil {
		return PrivKey{}, err
	}
	f.keysLk.Lock()
	defer f.keysLk.Unlock()

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return PrivKey{}, ErrKeyNotFound
	}
	if err != nil {
		return PrivKey{}, err
	}

	k := PrivKey{}
	if err := json.Unmarshal(content, &k); err != nil {
		return PrivKey{}, fmt.Errorf("keystore: key %q is corrupted: %w", keyName, err)
	}
	return k, nil
}

func (f *fileKeyStore) Put(keyName string, value PrivKey) error {
	path, err := f.keyPath(keyName)
	if err != nil {
		return err
	}
	content, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.keysLk.Lock()
	defer f.keysLk.Unlock()
	return os.WriteFile(path, content, 0600)
}

func (f *fileKeyStore) Delete(keyName string) error {
	path, err := f.keyPath(keyName)
	if err != nil {
		return err
	}
	f.keysLk.Lock()
	defer f.keysLk.Unlock()
	if err := os.Remove(path); errors.Is(err, os.ErrNotExist) {
		return ErrKeyNotFound
	} else if err != nil {
		return err
	}
	return nil
}

func (f *fileKeyStore) List() ([]string, error) {
	f.keysLk.Lock()
	defer f.keysLk.Unlock()
	entries, err := os.ReadDir(f.rootPath)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			keys = append(keys, e.Name())
		}
	}
	sort.Strings(keys)
	return keys, nil
}
