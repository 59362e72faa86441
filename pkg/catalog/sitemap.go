package catalog

import (
	"encoding/xml"
	"strconv"
	"strings"
	"time"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	NS      string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

var staticRoutes = []struct {
	path       string
	changeFreq string
	priority   float64
}{
	{"/", "yearly", 1},
	{"/about", "monthly", 0.8},
	{"/categories", "monthly", 0.8},
	{"/contact", "yearly", 0.5},
	{"/privacy", "yearly", 0.3},
	{"/terms", "yearly", 0.3},
}

// Sitemap renders the sitemap of the static pages and one page per
// calculator under baseURL.
func (c *Catalog) Sitemap(baseURL string, lastMod time.Time) ([]byte, error) {
	base := strings.TrimRight(baseURL, "/")
	mod := lastMod.UTC().Format(time.DateOnly)

	set := urlSet{NS: sitemapNS}
	for _, r := range staticRoutes {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        base + r.path,
			LastMod:    mod,
			ChangeFreq: r.changeFreq,
			Priority:   strconv.FormatFloat(r.priority, 'f', 1, 64),
		})
	}
	for _, calc := range c.calculators {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        base + "/calculator/" + calc.Slug,
			LastMod:    mod,
			ChangeFreq: "weekly",
			Priority:   "0.9",
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}
