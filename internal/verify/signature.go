package verify

import (
	"fmt"

	"github.com/jedisct1/go-minisign"
)

// MinisignManifest verifies a minisign signature over a checksum manifest.
//
// This runs in addition to the pinned-digest check, not instead of it: the
// embedded table stays authoritative, the upstream signature just proves the
// manifest we cross-checked against was published by the release key.
func MinisignManifest(manifest, signature []byte, pubKey string) error {
	key, err := minisign.NewPublicKey(pubKey)
	if err != nil {
		return fmt.Errorf("parse minisign pubkey: %w", err)
	}

	sig, err := minisign.DecodeSignature(string(signature))
	if err != nil {
		return fmt.Errorf("parse minisign signature: %w", err)
	}

	valid, err := key.Verify(manifest, sig)
	if err != nil {
		return fmt.Errorf("minisign: verification error: %w", err)
	}
	if !valid {
		return fmt.Errorf("minisign: signature verification failed")
	}
	return nil
}
