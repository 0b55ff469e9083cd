// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Teleprint-seal manages the age-sealed credential files the SMS
// adapter reads its gateway token from: keygen creates the identity a
// daemon machine unseals with, seal encrypts a token to it, and
// unseal verifies a sealed file before the daemon is pointed at it.
package main
