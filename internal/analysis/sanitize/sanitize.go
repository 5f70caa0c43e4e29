// Package sanitize strips links, therapist self-promotion and book plugs from
// generated replies.
package sanitize

import (
	"regexp"
	"strings"
)

var (
	urlPattern        = regexp.MustCompile(`\b(www\.[A-Za-z0-9.-]+|https?://\S+)`)
	namePattern       = regexp.MustCompile(`(?i)\b(Mark MorrisLCSW|LivingYes\.org|Robin J\. Landwehr)\b`)
	credentialPattern = regexp.MustCompile(`\b(DBH|LPC|NCC|PhD|MD|LCSW)\b`)
	whitespacePattern = regexp.MustCompile(`\s+`)

	// Everything from a reading recommendation to the end of the reply is dropped.
	recommendationPattern = regexp.MustCompile(`(?is)\b(I recommend reading|You should read|Look up .* on Amazon|Read .* by )\b.*`)
)

var boilerplate = []string{
	"LIVING YES, A HANDBOOK FOR BEING HUMAN",
	"Amazon.com",
	"self-help book",
	"this book changed my life",
	"a must-read for anyone",
	"this book was very helpful",
}

// Clean removes unwanted content and collapses whitespace. Passes repeat until
// the text is stable, so Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	for {
		next := cleanOnce(text)
		if next == text {
			return next
		}
		text = next
	}
}

func cleanOnce(text string) string {
	text = urlPattern.ReplaceAllString(text, "")
	text = namePattern.ReplaceAllString(text, "")
	text = credentialPattern.ReplaceAllString(text, "")
	text = recommendationPattern.ReplaceAllString(text, "")

	for _, phrase := range boilerplate {
		text = strings.ReplaceAll(text, phrase, "")
	}

	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}
