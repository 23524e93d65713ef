// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"io"
	"regexp"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/unified-scout/pkg/types"
)

// CSLItem is a bibliographic entry in CSL-YAML, consumable by Pandoc and
// reference managers.
type CSLItem struct {
	ID        string    `yaml:"id"`
	Type      string    `yaml:"type"`
	Title     string    `yaml:"title"`
	Author    []CSLName `yaml:"author,omitempty"`
	Abstract  string    `yaml:"abstract,omitempty"`
	Issued    *CSLDate  `yaml:"issued,omitempty"`
	DOI       string    `yaml:"DOI,omitempty"`
	URL       string    `yaml:"URL,omitempty"`
	Number    string    `yaml:"number,omitempty"`
	Authority string    `yaml:"authority,omitempty"`
	Source    string    `yaml:"source,omitempty"`
}

// CSLName is a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate is a date in CSL date-parts form.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

var usPatentPattern = regexp.MustCompile(`^US\d`)

// FormatCSL writes the ranked documents as a CSL-YAML list to w.
func FormatCSL(res types.Result, w io.Writer) error {
	items := make([]CSLItem, len(res.Results))
	for i, r := range res.Results {
		items[i] = toCSLItem(r)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(items)
}

func toCSLItem(r types.RankedDocument) CSLItem {
	d := r.Document
	id := r.RecordID
	if id == "" {
		id = d.CanonicalID()
	}
	item := CSLItem{
		ID:       id,
		Type:     "article",
		Title:    d.Title,
		Abstract: d.Abstract,
		DOI:      types.NormalizeDOI(d.DOI),
		URL:      d.URL,
		Source:   d.Provider,
	}
	for _, a := range d.Authors {
		if n := parseAuthorName(a); n != (CSLName{}) {
			item.Author = append(item.Author, n)
		}
	}
	if d.Year > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{d.Year}}}
	}
	if number, ok := patentNumber(d); ok {
		item.Type = "patent"
		item.Number = number
		item.Authority = "United States Patent and Trademark Office"
		item.DOI = ""
	}
	return item
}

// patentNumber returns the patent number for documents from a patent
// provider or whose native id looks like a US patent number.
func patentNumber(d types.RawDocument) (string, bool) {
	native := d.ID
	if i := strings.Index(native, ":"); i >= 0 {
		native = native[i+1:]
	}
	if d.Provider == "patentsview" || usPatentPattern.MatchString(native) {
		return native, native != ""
	}
	return "", false
}

// parseAuthorName splits a full name into CSL family/given parts on the
// last space. Single-token names use the literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
