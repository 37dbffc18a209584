// Package profile extracts public profile fields from GitHub profile pages.
//
// GitHub does not version its profile markup, so extraction is best effort:
// every field that cannot be located is left empty rather than failing the
// whole page.
package profile

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/reposcope/reposcope/internal/domain"
)

// Parse extracts the profile fields from a rendered profile page.
// Only an unreadable document yields an error; missing markup does not.
func Parse(html []byte) (domain.Profile, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("parse profile page: %w", err)
	}

	p := domain.Profile{
		DisplayName:  firstText(doc, "span.p-name"),
		Bio:          firstText(doc, "div.p-note"),
		Location:     firstText(doc, "span.p-label"),
		Repositories: firstText(doc, "span.Counter"),
	}

	// Follower and following counts share one anchor class; they are told
	// apart by the label text next to the number.
	doc.Find("a.Link--secondary").Each(func(_ int, s *goquery.Selection) {
		fields := strings.Fields(s.Text())
		if len(fields) < 2 {
			return
		}
		label := strings.ToLower(strings.Join(fields[1:], " "))
		switch {
		case p.Followers == "" && strings.Contains(label, "followers"):
			p.Followers = fields[0]
		case p.Following == "" && strings.Contains(label, "following"):
			p.Following = fields[0]
		}
	})

	return p, nil
}

func firstText(doc *goquery.Document, selector string) string {
	return strings.Join(strings.Fields(doc.Find(selector).First().Text()), " ")
}
