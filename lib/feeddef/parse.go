// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Package feeddef provides parsing and validation for the feed
// catalog: the JSONC file declaring which sources the daemon polls.
//
// The catalog is authored as JSONC (JSON extended with comments and
// trailing commas) so operators can annotate entries and comment feeds
// out seasonally. The daemon watches the file and applies edits
// without restarting.
//
// The typical flow:
//
//  1. ReadFile or Parse: JSONC bytes → Catalog
//  2. Validate: structural checks (known type, unique names, per-type
//     required fields)
//  3. The daemon constructs adapters from the definitions; deep
//     validation (credential unsealing, place resolution) happens
//     there.
package feeddef

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/tidwall/jsonc"
)

// Feed types understood by the daemon.
const (
	TypeWeather = "weather"
	TypeSMS     = "sms"
)

// Catalog is the parsed feed catalog.
type Catalog struct {
	Feeds []Definition `json:"feeds"`
}

// Definition declares one feed. Type and Name are always required;
// the remaining fields depend on the type. Every field is a string so
// definitions compare with ==, which is how the daemon detects
// changed entries across a catalog reload.
type Definition struct {
	// Type selects the adapter: "weather" or "sms".
	Type string `json:"type"`

	// Name is the unique catalog name, used in print headers, logs,
	// and acknowledgement routing.
	Name string `json:"name"`

	// PollInterval overrides the adapter's default cadence.
	PollInterval string `json:"poll_interval,omitempty"`

	// Weather: exactly one place selector, ZIP or City+State.
	ZIP   string `json:"zip,omitempty"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`

	// Weather: forecast horizon, as a duration string.
	Horizon string `json:"horizon,omitempty"`

	// SMS: relay endpoint and account coordinates.
	ServerURL   string `json:"server_url,omitempty"`
	GatewayURL  string `json:"gateway_url,omitempty"`
	AccountSID  string `json:"account_sid,omitempty"`
	PhoneNumber string `json:"phone_number,omitempty"`

	// SMS: the age-sealed gateway auth token and the identity that
	// unseals it.
	CredentialsFile string `json:"credentials_file,omitempty"`
	IdentityFile    string `json:"identity_file,omitempty"`

	// SMS: attended-hours window "HH:MM-HH:MM".
	Attended string `json:"attended,omitempty"`
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Catalog.
func Parse(data []byte) (*Catalog, error) {
	stripped := jsonc.ToJSON(data)
	var catalog Catalog
	if err := json.Unmarshal(stripped, &catalog); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return &catalog, nil
}

// ReadFile reads a JSONC catalog file from disk and parses it.
func ReadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	catalog, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return catalog, nil
}

// PollIntervalDuration returns the parsed PollInterval, or zero when
// unset so the adapter default applies. Validate rejects malformed
// values before they get here.
func (d Definition) PollIntervalDuration() time.Duration {
	interval, err := time.ParseDuration(d.PollInterval)
	if err != nil {
		return 0
	}
	return interval
}

// HorizonDuration returns the parsed Horizon, or zero when unset so
// the adapter default applies.
func (d Definition) HorizonDuration() time.Duration {
	horizon, err := time.ParseDuration(d.Horizon)
	if err != nil {
		return 0
	}
	return horizon
}
