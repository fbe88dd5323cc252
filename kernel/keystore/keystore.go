package keystore

import (
	"crypto/rand"
	"errors"

	"github.com/libp2p/go-libp2p/core/crypto"
)

var ErrKeyNotFound = errors.New("keystore: key not found")

// PrivKey holds a marshalled libp2p private key.
type PrivKey struct {
	Body []byte `json:"body"`
}

type Keystore interface {
	Get(keyName string) (PrivKey, error)
	Put(keyName string, value PrivKey) error
	Delete(keyName string) error
	List() ([]string, error)
}

// GenerateKey creates a new random ed25519 private key for the p2p network
func GenerateKey() (*PrivKey, error) {
	priv, _, err := crypto.GenerateEd25519Key(rand.Reader)
	if err != nil {
		return nil, err
	}

	bytes, err := crypto.MarshalPrivateKey(priv)
	if err != nil {
		return nil, err
	}
	return &PrivKey{Body: bytes}, nil
}

// GetOrCreateKey returns the key stored under keyName, generating and
// storing a new one on first use.
func GetOrCreateKey(kstore Keystore, keyName string) (*PrivKey, error) {
	privKey, err := kstore.Get(keyName)
	if errors.Is(err, ErrKeyNotFound) {
		newPrivKey, err := GenerateKey()
		if err != nil {
			return nil, err
		}
		if err := kstore.Put(keyName, *newPrivKey); err != nil {
			return nil, err
		}
		return newPrivKey, nil
	}
	if err != nil {
		return nil, err
	}
	return &privKey, nil
}
