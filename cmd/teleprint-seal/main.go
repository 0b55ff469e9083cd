// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/teleprint-works/teleprint/lib/sealed"
	"github.com/teleprint-works/teleprint/lib/secret"
	"github.com/teleprint-works/teleprint/lib/version"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		printUsage()
		return fmt.Errorf("subcommand required")
	}

	switch os.Args[1] {
	case "keygen":
		return runKeygen(os.Args[2:])
	case "seal":
		return runSeal(os.Args[2:])
	case "unseal":
		return runUnseal(os.Args[2:])
	case "version":
		fmt.Printf("teleprint-seal %s\n", version.Info())
		return nil
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand: %q", os.Args[1])
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: teleprint-seal <subcommand> [flags]

Subcommands:
  keygen    Generate the age identity a machine unseals with
  seal      Encrypt a gateway token to a recipient key
  unseal    Decrypt a sealed file to verify it
  version   Print version information

Run 'teleprint-seal <subcommand> --help' for subcommand flags.
`)
}

// runKeygen generates an age keypair. The public key goes to stdout
// for use as a seal recipient; the private key goes to the identity
// file, or to stderr when no file is named.
func runKeygen(args []string) error {
	flags := flag.NewFlagSet("keygen", flag.ExitOnError)
	var identityFile string
	flags.StringVar(&identityFile, "identity-file", "", "write the private key here (0600) instead of stderr")
	flags.Parse(args)

	keypair, err := sealed.GenerateKeypair()
	if err != nil {
		return fmt.Errorf("generating keypair: %w", err)
	}
	defer keypair.Close()

	if identityFile != "" {
		if err := writeIdentityFile(identityFile, keypair.PrivateKey); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "identity written to %s\n", identityFile)
	} else {
		fmt.Fprintf(os.Stderr, "# Private key (keep this secret):\n")
		fmt.Fprintf(os.Stderr, "%s\n", keypair.PrivateKey.String())
	}
	fmt.Fprintf(os.Stdout, "%s\n", keypair.PublicKey)
	return nil
}

// writeIdentityFile creates path holding the private key. It refuses
// to replace an existing file: an identity that sealed files already
// depend on must not be silently destroyed.
func writeIdentityFile(path string, key *secret.Buffer) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("creating identity file: %w", err)
	}
	if _, err := fmt.Fprintf(file, "%s\n", key.String()); err != nil {
		file.Close()
		return fmt.Errorf("writing identity file: %w", err)
	}
	return file.Close()
}

// runSeal encrypts a secret to the recipient key and writes the
// sealed file. The secret comes from stdin unless --from-file names a
// file; either way only the first line counts, since gateway tokens
// are single-line.
func runSeal(args []string) error {
	flags := flag.NewFlagSet("seal", flag.ExitOnError)
	var (
		recipient   string
		newIdentity string
		escrowKey   string
		fromFile    string
		outFile     string
	)
	flags.StringVar(&recipient, "recipient", "", "age public key of the unsealing machine")
	flags.StringVar(&newIdentity, "new-identity", "", "generate a keypair, write the identity here, and seal to it")
	flags.StringVar(&escrowKey, "escrow-key", "", "additional recipient for operator escrow")
	flags.StringVar(&fromFile, "from-file", "-", "read the secret from this file instead of stdin")
	flags.StringVar(&outFile, "out", "", "write the sealed file here (default stdout)")
	flags.Parse(args)

	var recipients []string
	switch {
	case recipient != "" && newIdentity != "":
		return fmt.Errorf("--recipient and --new-identity are mutually exclusive")
	case recipient != "":
		if err := sealed.ParsePublicKey(recipient); err != nil {
			return fmt.Errorf("invalid recipient key: %w", err)
		}
		recipients = []string{recipient}
	case newIdentity != "":
		keypair, err := sealed.GenerateKeypair()
		if err != nil {
			return fmt.Errorf("generating keypair: %w", err)
		}
		defer keypair.Close()
		if err := writeIdentityFile(newIdentity, keypair.PrivateKey); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "identity written to %s\n", newIdentity)
		recipients = []string{keypair.PublicKey}
	default:
		flags.Usage()
		return fmt.Errorf("--recipient or --new-identity is required")
	}
	if escrowKey != "" {
		if err := sealed.ParsePublicKey(escrowKey); err != nil {
			return fmt.Errorf("invalid escrow key: %w", err)
		}
		recipients = append(recipients, escrowKey)
	}

	plaintext, err := secret.ReadFromPath(fromFile)
	if err != nil {
		return err
	}
	defer plaintext.Close()

	ciphertext, err := sealed.Seal(plaintext.Bytes(), recipients)
	if err != nil {
		return err
	}

	if outFile == "" {
		fmt.Println(ciphertext)
		return nil
	}
	if err := os.WriteFile(outFile, []byte(ciphertext+"\n"), 0o600); err != nil {
		return fmt.Errorf("writing sealed file: %w", err)
	}
	fmt.Fprintf(os.Stderr, "sealed for %d recipient(s): %s\n", len(recipients), outFile)
	return nil
}

// runUnseal decrypts a sealed file with the identity and prints the
// plaintext, for checking a file before the daemon gets it.
func runUnseal(args []string) error {
	flags := flag.NewFlagSet("unseal", flag.ExitOnError)
	var identityFile string
	flags.StringVar(&identityFile, "identity", "", "identity file holding the private key (required)")
	flags.Parse(args)

	if identityFile == "" {
		flags.Usage()
		return fmt.Errorf("--identity is required")
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("exactly one sealed file argument required")
	}

	plaintext, err := sealed.UnsealFile(flags.Arg(0), identityFile)
	if err != nil {
		return err
	}
	defer plaintext.Close()

	// Write the bytes directly rather than going through a string,
	// which would leave an unzeroable copy on the heap.
	os.Stdout.Write(plaintext.Bytes())
	fmt.Println()
	return nil
}
