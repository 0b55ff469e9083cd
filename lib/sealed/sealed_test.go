// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSealUnsealRoundTrip(t *testing.T) {
	t.Parallel()
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	ciphertext, err := Seal([]byte("twilio-auth-token-value"), []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	if strings.Contains(ciphertext, "twilio") {
		t.Fatal("ciphertext contains the plaintext")
	}

	plaintext, err := Unseal(ciphertext, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("Unseal() error: %v", err)
	}
	defer plaintext.Close()
	if got := plaintext.String(); got != "twilio-auth-token-value" {
		t.Errorf("Unseal() = %q, want the sealed secret", got)
	}
}

func TestSealRequiresRecipients(t *testing.T) {
	t.Parallel()
	if _, err := Seal([]byte("secret"), nil); err == nil {
		t.Error("Seal() accepted an empty recipient list")
	}
}

func TestSealRejectsBadRecipient(t *testing.T) {
	t.Parallel()
	if _, err := Seal([]byte("secret"), []string{"not-an-age-key"}); err == nil {
		t.Error("Seal() accepted a malformed recipient key")
	}
}

func TestUnsealWrongKeyFails(t *testing.T) {
	t.Parallel()
	sealer, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer sealer.Close()
	other, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer other.Close()

	ciphertext, err := Seal([]byte("secret"), []string{sealer.PublicKey})
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}
	if _, err := Unseal(ciphertext, other.PrivateKey); err == nil {
		t.Error("Unseal() succeeded with the wrong private key")
	}
}

func TestUnsealRejectsGarbage(t *testing.T) {
	t.Parallel()
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	for _, ciphertext := range []string{"%%% not base64", "bm90IGFnZSBkYXRh"} {
		if _, err := Unseal(ciphertext, keypair.PrivateKey); err == nil {
			t.Errorf("Unseal(%q) succeeded", ciphertext)
		}
	}
}

func TestUnsealFile(t *testing.T) {
	t.Parallel()
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	ciphertext, err := Seal([]byte("file-borne-token"), []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Seal() error: %v", err)
	}

	dir := t.TempDir()
	sealedPath := filepath.Join(dir, "sms.age")
	identityPath := filepath.Join(dir, "identity.txt")
	if err := os.WriteFile(sealedPath, []byte(ciphertext+"\n"), 0o600); err != nil {
		t.Fatalf("writing sealed file: %v", err)
	}
	if err := os.WriteFile(identityPath, []byte(keypair.PrivateKey.String()+"\n"), 0o600); err != nil {
		t.Fatalf("writing identity file: %v", err)
	}

	plaintext, err := UnsealFile(sealedPath, identityPath)
	if err != nil {
		t.Fatalf("UnsealFile() error: %v", err)
	}
	defer plaintext.Close()
	if got := plaintext.String(); got != "file-borne-token" {
		t.Errorf("UnsealFile() = %q, want %q", got, "file-borne-token")
	}
}

func TestUnsealFileMissingSealed(t *testing.T) {
	t.Parallel()
	if _, err := UnsealFile(filepath.Join(t.TempDir(), "absent.age"), "-"); err == nil {
		t.Error("UnsealFile() succeeded on a missing sealed file")
	}
}

func TestParsePublicKey(t *testing.T) {
	t.Parallel()
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	if err := ParsePublicKey(keypair.PublicKey); err != nil {
		t.Errorf("ParsePublicKey(%q) error: %v", keypair.PublicKey, err)
	}
	if err := ParsePublicKey("age1malformed"); err == nil {
		t.Error("ParsePublicKey() accepted a malformed key")
	}
}
