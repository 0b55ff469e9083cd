// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package places

import "testing"

func TestStateName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		code string
		want string
	}{
		{"CA", "California"},
		{"ca", "California"},
		{" NY ", "New York"},
		{"PR", "Puerto Rico"},
		{"ZZ", "ZZ"},
		{"", ""},
		{"British Columbia", "British Columbia"},
	}
	for _, tt := range tests {
		if got := StateName(tt.code); got != tt.want {
			t.Errorf("StateName(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestCountryName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		code string
		want string
	}{
		{"US", "United States"},
		{"gb", "United Kingdom"},
		{"XX", "XX"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CountryName(tt.code); got != tt.want {
			t.Errorf("CountryName(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
