package services

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/nexconsult/case-fetcher/internal/models"
)

// ExtractionRule maps a visible label on the result page to a CaseResult
// field. The value is read from the first table cell after the label.
type ExtractionRule struct {
	Field  string
	Label  *regexp.Regexp
	Assign func(r *models.CaseResult, value string)
}

// DefaultExtractionRules covers the labelled fields of the case detail page
var DefaultExtractionRules = []ExtractionRule{
	{
		Field:  "petitioner",
		Label:  regexp.MustCompile(`Petitioner`),
		Assign: func(r *models.CaseResult, v string) { r.Petitioner = &v },
	},
	{
		Field:  "respondent",
		Label:  regexp.MustCompile(`Respondent`),
		Assign: func(r *models.CaseResult, v string) { r.Respondent = &v },
	},
	{
		Field:  "next_hearing_date",
		Label:  regexp.MustCompile(`Next Date of Hearing`),
		Assign: func(r *models.CaseResult, v string) { r.NextHearingDate = &v },
	},
}

// JudgmentLinkPattern matches hrefs of judgment/order documents
var JudgmentLinkPattern = regexp.MustCompile(`order_judgement`)

// ResultScraper turns result page markup into a CaseResult or the portal's error text
type ResultScraper struct {
	rules       []ExtractionRule
	errorBanner string
	judgment    *regexp.Regexp
	baseURL     *url.URL
	logger      *logrus.Logger
}

// NewResultScraper creates a scraper for the given portal layout
func NewResultScraper(portal Portal, rules []ExtractionRule, logger *logrus.Logger) *ResultScraper {
	if rules == nil {
		rules = DefaultExtractionRules
	}
	base, err := url.Parse(portal.BaseURL)
	if err != nil {
		base = nil
	}
	return &ResultScraper{
		rules:       rules,
		errorBanner: portal.ErrorBanner,
		judgment:    JudgmentLinkPattern,
		baseURL:     base,
		logger:      logger,
	}
}

// Scrape never fails. It returns the banner text when the portal reported an
// error, otherwise whatever fields it could find; nil when it found none.
func (s *ResultScraper) Scrape(markup string) (result *models.CaseResult, errText string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithField("panic", r).Error("Result scraping panicked")
			result, errText = nil, ""
		}
	}()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		s.logger.WithError(err).Warn("Failed to parse result page")
		return nil, ""
	}

	if s.errorBanner != "" {
		if banner := doc.Find(s.errorBanner).First(); banner.Length() > 0 {
			if text := strippedText(banner.Nodes[0]); text != "" {
				return nil, text
			}
		}
	}

	nodes := flatten(doc.Nodes)
	result = &models.CaseResult{}
	var missing []string
	for _, rule := range s.rules {
		value, ok := labelledCell(nodes, rule.Label)
		if !ok {
			missing = append(missing, rule.Field)
			continue
		}
		rule.Assign(result, value)
	}

	if link := s.judgmentLink(doc); link != "" {
		result.JudgmentPDFURL = &link
	} else {
		missing = append(missing, "judgment_pdf_url")
	}

	if len(missing) > 0 {
		s.logger.WithField("missing", missing).Debug("Result page is missing fields")
	}
	if result.IsEmpty() {
		return nil, ""
	}
	return result, ""
}

func (s *ResultScraper) judgmentLink(doc *goquery.Document) string {
	var link string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		if !s.judgment.MatchString(href) {
			return true
		}
		link = strings.TrimSpace(href)
		if s.baseURL != nil {
			if ref, err := url.Parse(link); err == nil {
				link = s.baseURL.ResolveReference(ref).String()
			}
		}
		return false
	})
	return link
}

// labelledCell finds the first text node matching label and returns the text
// of the next <td> in document order.
func labelledCell(nodes []*html.Node, label *regexp.Regexp) (string, bool) {
	start := -1
	for i, n := range nodes {
		if n.Type == html.TextNode && !inRawText(n) && label.MatchString(n.Data) {
			start = i
			break
		}
	}
	if start < 0 {
		return "", false
	}

	for _, n := range nodes[start+1:] {
		if n.Type == html.ElementNode && n.DataAtom == atom.Td {
			value := strippedText(n)
			return value, value != ""
		}
	}
	return "", false
}

// flatten lists the tree in document (pre-)order
func flatten(roots []*html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		out = append(out, n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}

// strippedText joins the trimmed, non-empty text pieces under n with single spaces
func strippedText(n *html.Node) string {
	var parts []string
	for _, d := range flatten([]*html.Node{n}) {
		if d.Type != html.TextNode || inRawText(d) {
			continue
		}
		if t := strings.Join(strings.Fields(d.Data), " "); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func inRawText(n *html.Node) bool {
	p := n.Parent
	return p != nil && p.Type == html.ElementNode && (p.DataAtom == atom.Script || p.DataAtom == atom.Style)
}
