package p2p

import (
	"github.com/libp2p/go-libp2p/core/crypto"
	"github.com/libp2p/go-libp2p/core/peer"

	"github.com/lexamoris/synthia/kernel/keystore"
)

// PrivKey unmarshals the libp2p private key held in a keystore entry.
func PrivKey(key *keystore.PrivKey) (crypto.PrivKey, error) {
	if key == nil {
		return nil, ErrInvalidKey
	}
	return crypto.UnmarshalPrivateKey(key.Body)
}

// ID gets the peer id from a keystore entry
func ID(key *keystore.PrivKey) (peer.ID, error) {
	privKey, err := PrivKey(key)
	if err != nil {
		return "", err
	}
	return peer.IDFromPrivateKey(privKey)
}
