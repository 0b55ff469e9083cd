// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package weather

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/teleprint-works/teleprint/lib/netutil"
	"github.com/teleprint-works/teleprint/lib/places"
)

const (
	defaultForecastURL  = "https://forecast.weather.gov/MapClick.php"
	defaultZipLookupURL = "https://graphical.weather.gov/xml/sample_products/browser_interface/ndfdXMLclient.php"
	defaultGazetteerURL = "https://geonames.usgs.gov/pls/gnis/x"
)

// latLonPattern matches the head of a latLonList value: "37.77,-122.41".
var latLonPattern = regexp.MustCompile(`^\s*([+-]?\d+\.\d*)\s*,\s*([+-]?\d+\.\d*)`)

// resolveZIP turns a US ZIP code into coordinates using the forecast
// service's own lookup endpoint.
func resolveZIP(ctx context.Context, client *http.Client, baseURL, zip string) (lat, lon float64, err error) {
	data, err := fetchXML(ctx, client, baseURL, url.Values{"listZipCodeList": {zip}})
	if err != nil {
		return 0, 0, fmt.Errorf("weather: ZIP %s lookup: %w", zip, err)
	}

	var reply struct {
		LatLonList string `xml:"latLonList"`
	}
	if err := xml.Unmarshal(data, &reply); err != nil {
		return 0, 0, fmt.Errorf("weather: ZIP %s lookup reply unreadable: %w", zip, err)
	}
	match := latLonPattern.FindStringSubmatch(reply.LatLonList)
	if match == nil {
		return 0, 0, fmt.Errorf("weather: ZIP %s is not a known location", zip)
	}
	lat, err = strconv.ParseFloat(match[1], 64)
	if err == nil {
		lon, err = strconv.ParseFloat(match[2], 64)
	}
	if err != nil {
		return 0, 0, fmt.Errorf("weather: ZIP %s lookup reply unreadable: %w", zip, err)
	}
	return lat, lon, nil
}

type gnisFeature struct {
	Name string `xml:"FEATURE_NAME"`
	Lat  string `xml:"FEAT_LATITUDE_NMBR"`
	Lon  string `xml:"FEAT_LONGITUDE_NMBR"`
}

// resolvePlace looks a city up in the federal gazetteer. The gazetteer
// matches loosely ("San Jose" returns "City of San Jose" among others),
// so the feature whose name sits closest to the query by edit distance
// wins; an exact case-insensitive match is distance zero.
func resolvePlace(ctx context.Context, client *http.Client, baseURL, city, state string) (name string, lat, lon float64, err error) {
	params := url.Values{
		// The gazetteer wants spelled-out state names and quoted values.
		"fname": {"'" + city + "'"},
		"state": {"'" + places.StateName(state) + "'"},
		"cnty":  {""},
		"cell":  {""},
		"ftype": {"'Civil'"},
		"op":    {"1"},
	}
	data, err := fetchXML(ctx, client, baseURL, params)
	if err != nil {
		return "", 0, 0, fmt.Errorf("weather: gazetteer lookup for %s, %s: %w", city, state, err)
	}

	features, err := gnisFeatures(data)
	if err != nil {
		return "", 0, 0, fmt.Errorf("weather: gazetteer reply for %s, %s unreadable: %w", city, state, err)
	}
	if len(features) == 0 {
		return "", 0, 0, fmt.Errorf("weather: no such place: %s, %s", city, state)
	}

	want := strings.ToUpper(city)
	best := 0
	bestDistance := levenshtein.ComputeDistance(want, strings.ToUpper(features[0].Name))
	for i, feature := range features[1:] {
		d := levenshtein.ComputeDistance(want, strings.ToUpper(feature.Name))
		if d < bestDistance {
			best, bestDistance = i+1, d
		}
	}

	chosen := features[best]
	lat, err = strconv.ParseFloat(strings.TrimSpace(chosen.Lat), 64)
	if err == nil {
		lon, err = strconv.ParseFloat(strings.TrimSpace(chosen.Lon), 64)
	}
	if err != nil {
		return "", 0, 0, fmt.Errorf("weather: gazetteer entry %q has no usable coordinates: %w", chosen.Name, err)
	}
	return chosen.Name, lat, lon, nil
}

// gnisFeatures collects every <USGS> feature element, wherever it sits
// in the reply tree.
func gnisFeatures(data []byte) ([]gnisFeature, error) {
	decoder := xml.NewDecoder(bytes.NewReader(data))
	var features []gnisFeature
	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			return features, nil
		}
		if err != nil {
			return nil, err
		}
		start, ok := token.(xml.StartElement)
		if !ok || start.Name.Local != "USGS" {
			continue
		}
		var feature gnisFeature
		if err := decoder.DecodeElement(&feature, &start); err != nil {
			return nil, err
		}
		features = append(features, feature)
	}
}

// fetchXML does a bounded GET against a government XML endpoint.
func fetchXML(ctx context.Context, client *http.Client, rawURL string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return netutil.ReadResponse(resp.Body)
}
