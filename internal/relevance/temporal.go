// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relevance

import "strings"

// Intent is the temporal orientation of a research question.
type Intent int

const (
	// IntentNone applies a mild recency preference.
	IntentNone Intent = iota
	// IntentFuture favors very recent work strongly.
	IntentFuture
	// IntentRecent favors very recent work and penalizes age more sharply.
	IntentRecent
	// IntentHistorical favors older work.
	IntentHistorical
)

// String returns the lower-case intent name used in logs.
func (i Intent) String() string {
	switch i {
	case IntentFuture:
		return "future"
	case IntentRecent:
		return "recent"
	case IntentHistorical:
		return "historical"
	default:
		return "none"
	}
}

var (
	futureWords = []string{"future", "next", "upcoming", "forecast", "forecasting", "projection", "projections", "emerging", "outlook", "prospects"}
	recentWords = []string{"recent", "latest", "current", "newest", "state of the art", "state-of-the-art", "today", "nowadays", "contemporary"}
	pastWords   = []string{"history", "historical", "historically", "past", "origin", "origins", "evolution", "early", "classic", "retrospective", "legacy"}
)

// DetectIntent classifies the query text by its temporal words. Future
// words win over recent words, which win over historical words.
func DetectIntent(query string) Intent {
	text := " " + strings.Join(strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return r == ',' || r == '.' || r == '?' || r == '!' || r == ';' || r == ':' || r == ' ' || r == '\t' || r == '\n'
	}), " ") + " "
	switch {
	case containsWord(text, futureWords):
		return IntentFuture
	case containsWord(text, recentWords):
		return IntentRecent
	case containsWord(text, pastWords):
		return IntentHistorical
	default:
		return IntentNone
	}
}

func containsWord(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, " "+w+" ") {
			return true
		}
	}
	return false
}

// TemporalRelevance scores a publication year against the reference year
// according to the temporal intent of the original query. A missing year
// scores neutral; years after the reference year count as age zero.
func TemporalRelevance(year, currentYear int, originalQuery string) float64 {
	if year <= 0 {
		return neutralScore
	}
	age := currentYear - year
	if age < 0 {
		age = 0
	}

	switch DetectIntent(originalQuery) {
	case IntentFuture:
		switch {
		case age <= 1:
			return 1.0
		case age <= 2:
			return 0.8
		case age <= 5:
			return 0.4
		default:
			return 0.1
		}
	case IntentRecent:
		switch {
		case age <= 1:
			return 1.0
		case age <= 3:
			return 0.6
		default:
			return 0.2
		}
	case IntentHistorical:
		switch {
		case age >= 20:
			return 1.0
		case age >= 10:
			return 0.8
		case age >= 5:
			return 0.6
		default:
			return 0.4
		}
	default:
		switch {
		case age <= 2:
			return 1.0
		case age <= 5:
			return 0.8
		case age <= 10:
			return 0.6
		default:
			return 0.4
		}
	}
}
