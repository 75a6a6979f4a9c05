// Package catalog retrieves the remote dataset listing and models its entries.
package catalog

import "strings"

// Descriptor is one entry in the remote catalog listing. Descriptors are
// fetched fresh on every run and never persisted.
type Descriptor struct {
	Identifier    string         `json:"identifier"`
	Title         string         `json:"title"`
	Themes        []string       `json:"theme"`
	Modified      string         `json:"modified"`
	Distributions []Distribution `json:"distribution"`
}

// Distribution is one downloadable representation of a dataset.
type Distribution struct {
	MediaType   string `json:"mediaType"`
	DownloadURL string `json:"downloadURL"`
}

// PrimaryDistribution returns the first CSV-typed distribution. Media type
// parameters (e.g. "; charset=utf-8") are ignored. The second return value
// is false when the descriptor has no CSV distribution, which makes it
// ineligible for ingestion.
func (d *Descriptor) PrimaryDistribution() (Distribution, bool) {
	for _, dist := range d.Distributions {
		if isCSVMediaType(dist.MediaType) {
			return dist, true
		}
	}

	return Distribution{}, false
}

func isCSVMediaType(mediaType string) bool {
	media, _, _ := strings.Cut(mediaType, ";")

	return strings.EqualFold(strings.TrimSpace(media), "text/csv")
}
