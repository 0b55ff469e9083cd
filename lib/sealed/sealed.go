// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed wraps filippo.io/age for the one secret this system
// stores: the SMS gateway auth token. teleprint-seal encrypts the
// token to the machine's age public key; the daemon decrypts it at
// startup with the identity file and keeps the plaintext in a
// secret.Buffer, never on the heap longer than the API boundary
// requires.
//
// Sealed files hold the age ciphertext as a single base64 line, so
// they survive editors, quoting, and config-management tooling that
// mangles binary.
package sealed

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"strings"

	"filippo.io/age"

	"github.com/teleprint-works/teleprint/lib/secret"
)

// Keypair is an age x25519 keypair. The private key lives in protected
// memory; the public key is plain text, safe to publish. Close releases
// the private key.
type Keypair struct {
	PrivateKey *secret.Buffer
	PublicKey  string
}

// Close releases the private key memory. Idempotent.
func (k *Keypair) Close() error {
	if k.PrivateKey != nil {
		return k.PrivateKey.Close()
	}
	return nil
}

// GenerateKeypair creates a new age x25519 keypair with the private
// key in a secret.Buffer. The caller must Close the keypair.
func GenerateKeypair() (*Keypair, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("generating age keypair: %w", err)
	}

	// identity.String() is a heap string we cannot zero; the protected
	// buffer is the durable copy.
	privateKey, err := secret.NewFromBytes([]byte(identity.String()))
	if err != nil {
		return nil, fmt.Errorf("protecting private key: %w", err)
	}
	return &Keypair{
		PrivateKey: privateKey,
		PublicKey:  identity.Recipient().String(),
	}, nil
}

// Seal encrypts plaintext to the recipient public keys (age1... form)
// and returns the ciphertext as a base64 string. At least one
// recipient is required.
func Seal(plaintext []byte, recipientKeys []string) (string, error) {
	if len(recipientKeys) == 0 {
		return "", fmt.Errorf("at least one recipient is required")
	}

	recipients := make([]age.Recipient, 0, len(recipientKeys))
	for _, key := range recipientKeys {
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return "", fmt.Errorf("parsing recipient key %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}

	var sealedBuffer bytes.Buffer
	writer, err := age.Encrypt(&sealedBuffer, recipients...)
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}
	if _, err := writer.Write(plaintext); err != nil {
		return "", fmt.Errorf("writing plaintext: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing encryption: %w", err)
	}

	return base64.StdEncoding.EncodeToString(sealedBuffer.Bytes()), nil
}

// Unseal decrypts a base64 ciphertext with the given private key and
// returns the plaintext in a secret.Buffer the caller must Close. The
// private key is borrowed, not closed.
func Unseal(ciphertext string, privateKey *secret.Buffer) (*secret.Buffer, error) {
	// age wants the identity as a string; the copy is brief and
	// unavoidable at this boundary.
	identity, err := age.ParseX25519Identity(privateKey.String())
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ciphertext))
	if err != nil {
		return nil, fmt.Errorf("decoding base64 ciphertext: %w", err)
	}

	reader, err := age.Decrypt(bytes.NewReader(raw), identity)
	if err != nil {
		return nil, fmt.Errorf("decrypting: %w", err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading decrypted plaintext: %w", err)
	}
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("sealed file held an empty secret")
	}

	buffer, err := secret.NewFromBytes(plaintext)
	if err != nil {
		secret.Zero(plaintext)
		return nil, fmt.Errorf("protecting decrypted plaintext: %w", err)
	}
	return buffer, nil
}

// UnsealFile reads a sealed file and an age identity file and returns
// the decrypted secret. This is the daemon's startup path for the
// gateway token.
func UnsealFile(sealedPath, identityPath string) (*secret.Buffer, error) {
	ciphertext, err := os.ReadFile(sealedPath)
	if err != nil {
		return nil, fmt.Errorf("reading sealed file: %w", err)
	}
	privateKey, err := secret.ReadFromPath(identityPath)
	if err != nil {
		return nil, fmt.Errorf("reading identity file: %w", err)
	}
	defer privateKey.Close()

	plaintext, err := Unseal(string(ciphertext), privateKey)
	if err != nil {
		return nil, fmt.Errorf("unsealing %s: %w", sealedPath, err)
	}
	return plaintext, nil
}

// ParsePublicKey validates an age public key string, for checking
// recipients before sealing anything to them.
func ParsePublicKey(publicKey string) error {
	if _, err := age.ParseX25519Recipient(publicKey); err != nil {
		return fmt.Errorf("invalid age public key: %w", err)
	}
	return nil
}
