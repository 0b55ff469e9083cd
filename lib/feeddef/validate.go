// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package feeddef

import (
	"fmt"
	"time"
)

// Validate checks a Catalog for structural issues. Returns a list of
// human-readable issue descriptions; an empty list means the catalog
// is usable. An empty feed list is valid — it is how an operator stops
// everything without tearing the daemon down.
func Validate(catalog *Catalog) []string {
	var issues []string

	names := make(map[string]int, len(catalog.Feeds))
	for index, def := range catalog.Feeds {
		prefix := fmt.Sprintf("feeds[%d]", index)
		if def.Name == "" {
			issues = append(issues, fmt.Sprintf("%s: name is required", prefix))
		} else {
			prefix = fmt.Sprintf("%s %q", prefix, def.Name)
			if firstIndex, exists := names[def.Name]; exists {
				issues = append(issues, fmt.Sprintf(
					"%s: duplicate feed name (first used at feeds[%d])", prefix, firstIndex))
			} else {
				names[def.Name] = index
			}
		}
		issues = append(issues, validateDefinition(def, prefix)...)
	}

	return issues
}

// validateDefinition checks a single definition. The prefix identifies
// its position for error messages.
func validateDefinition(def Definition, prefix string) []string {
	var issues []string

	if def.PollInterval != "" {
		if interval, err := time.ParseDuration(def.PollInterval); err != nil {
			issues = append(issues, fmt.Sprintf("%s: invalid poll_interval %q: %v", prefix, def.PollInterval, err))
		} else if interval <= 0 {
			issues = append(issues, fmt.Sprintf("%s: poll_interval must be positive", prefix))
		}
	}

	switch def.Type {
	case TypeWeather:
		issues = append(issues, validateWeather(def, prefix)...)
	case TypeSMS:
		issues = append(issues, validateSMS(def, prefix)...)
	case "":
		issues = append(issues, fmt.Sprintf("%s: type is required", prefix))
	default:
		issues = append(issues, fmt.Sprintf("%s: unknown type %q (want weather or sms)", prefix, def.Type))
	}

	return issues
}

func validateWeather(def Definition, prefix string) []string {
	var issues []string

	hasZIP := def.ZIP != ""
	hasPlace := def.City != "" || def.State != ""
	switch {
	case hasZIP && hasPlace:
		issues = append(issues, fmt.Sprintf("%s: zip and city/state are mutually exclusive", prefix))
	case !hasZIP && !hasPlace:
		issues = append(issues, fmt.Sprintf("%s: a place is required (zip, or city and state)", prefix))
	case hasPlace && (def.City == "" || def.State == ""):
		issues = append(issues, fmt.Sprintf("%s: city and state must be set together", prefix))
	}

	if def.Horizon != "" {
		if horizon, err := time.ParseDuration(def.Horizon); err != nil {
			issues = append(issues, fmt.Sprintf("%s: invalid horizon %q: %v", prefix, def.Horizon, err))
		} else if horizon <= 0 {
			issues = append(issues, fmt.Sprintf("%s: horizon must be positive", prefix))
		}
	}

	if def.ServerURL != "" || def.GatewayURL != "" || def.AccountSID != "" ||
		def.PhoneNumber != "" || def.CredentialsFile != "" || def.IdentityFile != "" ||
		def.Attended != "" {
		issues = append(issues, fmt.Sprintf("%s: sms fields are not valid on a weather feed", prefix))
	}

	return issues
}

func validateSMS(def Definition, prefix string) []string {
	var issues []string

	if def.ServerURL == "" {
		issues = append(issues, fmt.Sprintf("%s: server_url is required", prefix))
	}
	if def.AccountSID == "" {
		issues = append(issues, fmt.Sprintf("%s: account_sid is required", prefix))
	}
	if def.PhoneNumber == "" {
		issues = append(issues, fmt.Sprintf("%s: phone_number is required", prefix))
	}
	if def.CredentialsFile == "" || def.IdentityFile == "" {
		issues = append(issues, fmt.Sprintf("%s: credentials_file and identity_file are required", prefix))
	}

	if def.ZIP != "" || def.City != "" || def.State != "" || def.Horizon != "" {
		issues = append(issues, fmt.Sprintf("%s: weather fields are not valid on an sms feed", prefix))
	}

	return issues
}
