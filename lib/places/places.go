// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

// Package places spells out postal abbreviations for teleprinter
// display. Carrier metadata and government services hand back "CA" and
// "US"; the paper reads better with "California" and "United States".
package places

import "strings"

// StateName returns the spelled-out name of a two-letter US state or
// territory code. Unrecognized codes come back unchanged.
func StateName(code string) string {
	if name, ok := stateNames[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return name
	}
	return code
}

// CountryName returns the spelled-out name of an ISO 3166 alpha-2
// country code. Unrecognized codes come back unchanged.
func CountryName(code string) string {
	if name, ok := countryNames[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return name
	}
	return code
}

var stateNames = map[string]string{
	"AL": "Alabama",
	"AK": "Alaska",
	"AZ": "Arizona",
	"AR": "Arkansas",
	"CA": "California",
	"CO": "Colorado",
	"CT": "Connecticut",
	"DE": "Delaware",
	"DC": "District of Columbia",
	"FL": "Florida",
	"GA": "Georgia",
	"HI": "Hawaii",
	"ID": "Idaho",
	"IL": "Illinois",
	"IN": "Indiana",
	"IA": "Iowa",
	"KS": "Kansas",
	"KY": "Kentucky",
	"LA": "Louisiana",
	"ME": "Maine",
	"MD": "Maryland",
	"MA": "Massachusetts",
	"MI": "Michigan",
	"MN": "Minnesota",
	"MS": "Mississippi",
	"MO": "Missouri",
	"MT": "Montana",
	"NE": "Nebraska",
	"NV": "Nevada",
	"NH": "New Hampshire",
	"NJ": "New Jersey",
	"NM": "New Mexico",
	"NY": "New York",
	"NC": "North Carolina",
	"ND": "North Dakota",
	"OH": "Ohio",
	"OK": "Oklahoma",
	"OR": "Oregon",
	"PA": "Pennsylvania",
	"RI": "Rhode Island",
	"SC": "South Carolina",
	"SD": "South Dakota",
	"TN": "Tennessee",
	"TX": "Texas",
	"UT": "Utah",
	"VT": "Vermont",
	"VA": "Virginia",
	"WA": "Washington",
	"WV": "West Virginia",
	"WI": "Wisconsin",
	"WY": "Wyoming",
	"AS": "American Samoa",
	"GU": "Guam",
	"MP": "Northern Mariana Islands",
	"PR": "Puerto Rico",
	"VI": "US Virgin Islands",
}

var countryNames = map[string]string{
	"US": "United States",
	"CA": "Canada",
	"MX": "Mexico",
	"GB": "United Kingdom",
	"IE": "Ireland",
	"FR": "France",
	"DE": "Germany",
	"IT": "Italy",
	"ES": "Spain",
	"PT": "Portugal",
	"NL": "Netherlands",
	"BE": "Belgium",
	"CH": "Switzerland",
	"AT": "Austria",
	"SE": "Sweden",
	"NO": "Norway",
	"DK": "Denmark",
	"FI": "Finland",
	"IS": "Iceland",
	"PL": "Poland",
	"CZ": "Czechia",
	"GR": "Greece",
	"TR": "Turkey",
	"UA": "Ukraine",
	"RU": "Russia",
	"CN": "China",
	"JP": "Japan",
	"KR": "South Korea",
	"TW": "Taiwan",
	"HK": "Hong Kong",
	"SG": "Singapore",
	"IN": "India",
	"TH": "Thailand",
	"VN": "Vietnam",
	"PH": "Philippines",
	"ID": "Indonesia",
	"MY": "Malaysia",
	"AU": "Australia",
	"NZ": "New Zealand",
	"BR": "Brazil",
	"AR": "Argentina",
	"CL": "Chile",
	"CO": "Colombia",
	"PE": "Peru",
	"ZA": "South Africa",
	"EG": "Egypt",
	"IL": "Israel",
	"SA": "Saudi Arabia",
	"AE": "United Arab Emirates",
	"BS": "Bahamas",
	"BB": "Barbados",
	"BM": "Bermuda",
	"DO": "Dominican Republic",
	"JM": "Jamaica",
	"TT": "Trinidad and Tobago",
}
