// Copyright 2026 The Teleprint Authors
// SPDX-License-Identifier: Apache-2.0

package weather

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/teleprint-works/teleprint/feed"
	"github.com/teleprint-works/teleprint/lib/places"
)

// forecast is the useful subset of a DWML document: where, when it was
// issued, and the worded outlook per named period.
type forecast struct {
	Location string
	Created  time.Time
	Periods  []forecastPeriod
}

type forecastPeriod struct {
	At   time.Time
	Name string // "Tonight", "Saturday" — empty when the service gives none
	Text string
}

// dwmlDocument mirrors the parts of the DWML schema the report needs.
// MapClick responses carry several <data> sections (forecast, current
// observations); only the forecast section matters here.
type dwmlDocument struct {
	XMLName xml.Name `xml:"dwml"`
	Head    struct {
		Product struct {
			CreationDate string `xml:"creation-date"`
		} `xml:"product"`
	} `xml:"head"`
	Data []dwmlData `xml:"data"`
}

type dwmlData struct {
	Type     string `xml:"type,attr"`
	Location struct {
		City struct {
			State string `xml:"state,attr"`
			Name  string `xml:",chardata"`
		} `xml:"city"`
		AreaDescription string `xml:"area-description"`
	} `xml:"location"`
	TimeLayouts []struct {
		Key        string `xml:"layout-key"`
		StartTimes []struct {
			PeriodName string `xml:"period-name,attr"`
			Value      string `xml:",chardata"`
		} `xml:"start-valid-time"`
	} `xml:"time-layout"`
	Parameters struct {
		WordedForecasts []struct {
			TimeLayout string   `xml:"time-layout,attr"`
			Texts      []string `xml:"text"`
		} `xml:"wordedForecast"`
	} `xml:"parameters"`
}

type periodTime struct {
	at   time.Time
	name string
}

// parseDWML interprets a forecast service reply. Replies that are not
// DWML at all (HTML error pages, service error XML) produce an error
// carrying the page title when one can be found.
func parseDWML(data []byte) (*forecast, error) {
	var doc dwmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		if title := htmlTitle(data); title != "" {
			return nil, fmt.Errorf("%s", title)
		}
		return nil, fmt.Errorf("reply is not a forecast document")
	}

	created, err := time.Parse(time.RFC3339, strings.TrimSpace(doc.Head.Product.CreationDate))
	if err != nil {
		return nil, fmt.Errorf("forecast has no readable creation date")
	}

	section, err := forecastSection(doc.Data)
	if err != nil {
		return nil, err
	}
	location, err := forecastLocation(section)
	if err != nil {
		return nil, err
	}
	periods, err := forecastPeriods(section)
	if err != nil {
		return nil, err
	}

	return &forecast{Location: location, Created: created, Periods: periods}, nil
}

func forecastSection(sections []dwmlData) (*dwmlData, error) {
	for i := range sections {
		if sections[i].Type == "forecast" {
			return &sections[i], nil
		}
	}
	return nil, fmt.Errorf("forecast data section missing")
}

// forecastLocation prefers city and state; rural points carry only an
// area description ("6 Miles ESE Hidden Valley Lake CA").
func forecastLocation(section *dwmlData) (string, error) {
	if city := strings.TrimSpace(section.Location.City.Name); city != "" {
		return city + ", " + places.StateName(section.Location.City.State), nil
	}
	if area := strings.TrimSpace(section.Location.AreaDescription); area != "" {
		return area, nil
	}
	return "", fmt.Errorf("forecast names no location")
}

func forecastPeriods(section *dwmlData) ([]forecastPeriod, error) {
	layouts, err := timeLayouts(section)
	if err != nil {
		return nil, err
	}

	var periods []forecastPeriod
	for _, worded := range section.Parameters.WordedForecasts {
		key := strings.TrimSpace(worded.TimeLayout)
		layout, ok := layouts[key]
		if !ok {
			return nil, fmt.Errorf("forecast references unknown time layout %q", key)
		}
		if len(layout) != len(worded.Texts) {
			return nil, fmt.Errorf("time layout %q has %d periods for %d forecasts",
				key, len(layout), len(worded.Texts))
		}
		for i, text := range worded.Texts {
			periods = append(periods, forecastPeriod{
				At:   layout[i].at,
				Name: layout[i].name,
				Text: strings.TrimSpace(text),
			})
		}
	}
	return periods, nil
}

// timeLayouts indexes the section's time layouts by key. A layout with
// any "NA" timestamp is dropped whole; the forecasts that reference it
// would be untimestampable.
func timeLayouts(section *dwmlData) (map[string][]periodTime, error) {
	layouts := make(map[string][]periodTime)
	for _, layout := range section.TimeLayouts {
		key := strings.TrimSpace(layout.Key)
		if key == "" {
			return nil, fmt.Errorf("time layout without a layout key")
		}
		times := make([]periodTime, 0, len(layout.StartTimes))
		usable := true
		for _, start := range layout.StartTimes {
			value := strings.TrimSpace(start.Value)
			if value == "NA" {
				usable = false
				break
			}
			at, err := time.Parse(time.RFC3339, value)
			if err != nil {
				return nil, fmt.Errorf("time layout %q has unreadable time %q", key, value)
			}
			times = append(times, periodTime{at: at, name: start.PeriodName})
		}
		if usable {
			layouts[key] = times
		}
	}
	return layouts, nil
}

// periodsText renders the worded periods within the horizon, measured
// from the forecast's creation time, as paragraphs:
//
//	Tonight, March 12: Rain likely. Lows in the mid 40s.
func (f *forecast) periodsText(horizon time.Duration, local *time.Location) string {
	var lines []string
	for _, period := range f.Periods {
		if period.At.Sub(f.Created) >= horizon {
			continue
		}
		at := period.At.In(local)
		name := period.Name
		if name == "" {
			name = feed.DisplayTime(at)
		}
		lines = append(lines, fmt.Sprintf("%s, %s: %s", name, feed.DisplayDate(at), period.Text))
	}
	return strings.Join(lines, "\n\n")
}

// report renders the full printable forecast.
func (f *forecast) report(horizon time.Duration, local *time.Location) string {
	created := f.Created.In(local)
	header := fmt.Sprintf("Weather forecast for %s on %s at %s.\n\n",
		f.Location, feed.DisplayDate(created), feed.DisplayTime(created))
	return header + f.periodsText(horizon, local)
}

// htmlTitle digs the <title> text out of an HTML page, or returns "".
// Service outages answer DWML requests with branded error pages whose
// title is the only useful diagnostic.
func htmlTitle(data []byte) string {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return ""
	}
	var title string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if title != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "title" {
			var text strings.Builder
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.TextNode {
					text.WriteString(c.Data)
				}
			}
			title = strings.TrimSpace(text.String())
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return title
}
