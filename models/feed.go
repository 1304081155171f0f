// Package models defines data structures shared by the scraper, storage and API layers.
package models

import (
	"encoding/json"
	"math"
	"time"
)

// RawItem is one catalog item exactly as the remote feed returned it.
type RawItem = json.RawMessage

// Page is a decoded response for a single feed page.
type Page struct {
	Status   string
	Items    []RawItem
	EndPage  bool
	StreamID string
}

// FetchResult is the outcome of one paginated fetch.
type FetchResult struct {
	Items        []RawItem
	PagesScraped int
	Elapsed      time.Duration
}

// TimeTakenSeconds returns the elapsed time rounded to whole seconds.
func (r *FetchResult) TimeTakenSeconds() int {
	return int(math.Round(r.Elapsed.Seconds()))
}
