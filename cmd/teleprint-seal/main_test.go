// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/teleprint-works/teleprint/lib/sealed"
)

func TestKeygenWritesIdentityFile(t *testing.T) {
	identityPath := filepath.Join(t.TempDir(), "identity.txt")

	if err := runKeygen([]string{"--identity-file", identityPath}); err != nil {
		t.Fatalf("runKeygen() error: %v", err)
	}

	info, err := os.Stat(identityPath)
	if err != nil {
		t.Fatalf("stat identity file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("identity file mode = %o, want 600", perm)
	}
	content, err := os.ReadFile(identityPath)
	if err != nil {
		t.Fatalf("reading identity file: %v", err)
	}
	if !strings.HasPrefix(string(content), "AGE-SECRET-KEY-1") {
		t.Errorf("identity file does not start with an age secret key")
	}
}

func TestKeygenRefusesToClobberIdentity(t *testing.T) {
	identityPath := filepath.Join(t.TempDir(), "identity.txt")
	if err := os.WriteFile(identityPath, []byte("existing\n"), 0o600); err != nil {
		t.Fatalf("writing existing file: %v", err)
	}

	if err := runKeygen([]string{"--identity-file", identityPath}); err == nil {
		t.Fatal("runKeygen() replaced an existing identity file")
	}
	content, _ := os.ReadFile(identityPath)
	if string(content) != "existing\n" {
		t.Errorf("existing identity file was modified")
	}
}

func TestSealUnsealRoundTrip(t *testing.T) {
	keypair, err := sealed.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer keypair.Close()

	dir := t.TempDir()
	identityPath := filepath.Join(dir, "identity.txt")
	if err := os.WriteFile(identityPath, []byte(keypair.PrivateKey.String()+"\n"), 0o600); err != nil {
		t.Fatalf("writing identity file: %v", err)
	}
	tokenPath := filepath.Join(dir, "token.txt")
	if err := os.WriteFile(tokenPath, []byte("gateway-token-123\n"), 0o600); err != nil {
		t.Fatalf("writing token file: %v", err)
	}
	sealedPath := filepath.Join(dir, "sms.age")

	err = runSeal([]string{
		"--recipient", keypair.PublicKey,
		"--from-file", tokenPath,
		"--out", sealedPath,
	})
	if err != nil {
		t.Fatalf("runSeal() error: %v", err)
	}

	info, err := os.Stat(sealedPath)
	if err != nil {
		t.Fatalf("stat sealed file: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("sealed file mode = %o, want 600", perm)
	}

	plaintext, err := sealed.UnsealFile(sealedPath, identityPath)
	if err != nil {
		t.Fatalf("UnsealFile() error: %v", err)
	}
	defer plaintext.Close()
	if got := plaintext.String(); got != "gateway-token-123" {
		t.Errorf("unsealed %q, want %q", got, "gateway-token-123")
	}
}

func TestSealToEscrowRecipient(t *testing.T) {
	machine, err := sealed.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer machine.Close()
	escrow, err := sealed.GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair() error: %v", err)
	}
	defer escrow.Close()

	dir := t.TempDir()
	escrowIdentity := filepath.Join(dir, "escrow.txt")
	if err := os.WriteFile(escrowIdentity, []byte(escrow.PrivateKey.String()+"\n"), 0o600); err != nil {
		t.Fatalf("writing escrow identity: %v", err)
	}
	tokenPath := filepath.Join(dir, "token.txt")
	if err := os.WriteFile(tokenPath, []byte("shared-token\n"), 0o600); err != nil {
		t.Fatalf("writing token file: %v", err)
	}
	sealedPath := filepath.Join(dir, "sms.age")

	err = runSeal([]string{
		"--recipient", machine.PublicKey,
		"--escrow-key", escrow.PublicKey,
		"--from-file", tokenPath,
		"--out", sealedPath,
	})
	if err != nil {
		t.Fatalf("runSeal() error: %v", err)
	}

	// The escrow identity alone must be able to open the file.
	plaintext, err := sealed.UnsealFile(sealedPath, escrowIdentity)
	if err != nil {
		t.Fatalf("UnsealFile() with escrow identity error: %v", err)
	}
	defer plaintext.Close()
	if got := plaintext.String(); got != "shared-token" {
		t.Errorf("unsealed %q, want %q", got, "shared-token")
	}
}

func TestSealWithNewIdentity(t *testing.T) {
	dir := t.TempDir()
	identityPath := filepath.Join(dir, "machine.txt")
	tokenPath := filepath.Join(dir, "token.txt")
	if err := os.WriteFile(tokenPath, []byte("fresh-token\n"), 0o600); err != nil {
		t.Fatalf("writing token file: %v", err)
	}
	sealedPath := filepath.Join(dir, "sms.age")

	err := runSeal([]string{
		"--new-identity", identityPath,
		"--from-file", tokenPath,
		"--out", sealedPath,
	})
	if err != nil {
		t.Fatalf("runSeal() error: %v", err)
	}

	plaintext, err := sealed.UnsealFile(sealedPath, identityPath)
	if err != nil {
		t.Fatalf("UnsealFile() with generated identity error: %v", err)
	}
	defer plaintext.Close()
	if got := plaintext.String(); got != "fresh-token" {
		t.Errorf("unsealed %q, want %q", got, "fresh-token")
	}
}

func TestSealRejectsInvalidRecipient(t *testing.T) {
	err := runSeal([]string{"--recipient", "not-an-age-key"})
	if err == nil {
		t.Fatal("runSeal() accepted a malformed recipient key")
	}
	if !strings.Contains(err.Error(), "invalid recipient key") {
		t.Errorf("error %q does not name the recipient key", err)
	}
}

func TestUnsealRequiresIdentity(t *testing.T) {
	err := runUnseal([]string{})
	if err == nil {
		t.Fatal("runUnseal() proceeded without an identity")
	}
	if !strings.Contains(err.Error(), "--identity is required") {
		t.Errorf("error %q does not name the missing flag", err)
	}
}
