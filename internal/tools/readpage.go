package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
	"rsc.io/pdf"
)

const (
	pageFetchTimeout  = 20 * time.Second
	pageMaxBodyBytes  = int64(1_500_000)
	pageMaxRedirects  = 3
	pageMaxTextRunes  = 12_000
	pageUserAgent     = "scout-research-bot/1.0"
	pageSnippetLength = 900
)

var errUnsupportedPageType = errors.New("unsupported content type")

// ReadPageTool fetches a public web page and returns its readable text.
// Requests to private networks and non-HTTP schemes are refused.
type ReadPageTool struct {
	httpClient *http.Client
	log        *logrus.Logger
}

func NewReadPageTool(httpClient *http.Client, log *logrus.Logger) *ReadPageTool {
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		transport.DialContext = secureDialContext(&net.Dialer{Timeout: pageFetchTimeout})
		httpClient = &http.Client{Transport: transport}
	}
	httpClient.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= pageMaxRedirects {
			return fmt.Errorf("too many redirects")
		}
		if _, err := validatePageURL(req.URL.String()); err != nil {
			return err
		}
		return nil
	}
	return &ReadPageTool{httpClient: httpClient, log: log}
}

func (t *ReadPageTool) Name() string { return "read_page" }

func (t *ReadPageTool) Description() string {
	return "Fetch a web page and return its readable text content. " +
		"Use this tool to read an article or documentation page found via search. " +
		"Input should be a single http(s) URL."
}

func (t *ReadPageTool) Run(ctx context.Context, input string) string {
	parsed, err := validatePageURL(input)
	if err != nil {
		return fmt.Sprintf("Error: cannot read %q: %s", strings.TrimSpace(input), err)
	}

	requestCtx, cancel := context.WithTimeout(ctx, pageFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return fmt.Sprintf("Error: build request: %s", err)
	}
	req.Header.Set("User-Agent", pageUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain,text/markdown,application/pdf;q=0.9,*/*;q=0.2")

	t.log.WithField("url", parsed.String()).Info("reading page")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Sprintf("Error: fetch %s: %s", parsed.String(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusBadRequest {
		return fmt.Sprintf("Error: %s returned status %d", parsed.String(), resp.StatusCode)
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, pageMaxBodyBytes))
	if err != nil {
		return fmt.Sprintf("Error: read body: %s", err)
	}

	title, text, err := extractPageText(resp.Header.Get("Content-Type"), payload)
	if err != nil {
		return fmt.Sprintf("Error: extract %s: %s", parsed.String(), err)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Sprintf("Error: no readable content at %s", parsed.String())
	}

	var builder strings.Builder
	fmt.Fprintf(&builder, "URL: %s\n", parsed.String())
	if title != "" {
		fmt.Fprintf(&builder, "Title: %s\n", title)
	}
	builder.WriteString("Content:\n")
	builder.WriteString(trimRunes(text, pageMaxTextRunes))
	return builder.String()
}

func extractPageText(contentType string, body []byte) (title, text string, err error) {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, parseErr := mime.ParseMediaType(mediaType); parseErr == nil {
		mediaType = parsed
	}

	switch {
	case mediaType == "text/html" || mediaType == "application/xhtml+xml" || mediaType == "":
		return extractHTMLText(body)
	case mediaType == "application/pdf":
		text, err = extractPDFText(body)
		return "", text, err
	case strings.HasPrefix(mediaType, "text/"):
		return "", normalizePageText(string(body)), nil
	default:
		return "", "", errUnsupportedPageType
	}
}

func extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var builder strings.Builder
	runeCount := 0
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		for _, item := range page.Content().Text {
			chunk := strings.TrimSpace(item.S)
			if chunk == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteByte('\n')
				runeCount++
			}
			builder.WriteString(chunk)
			runeCount += utf8.RuneCountInString(chunk)
			if runeCount >= pageMaxTextRunes {
				return normalizePageText(trimRunes(builder.String(), pageMaxTextRunes)), nil
			}
		}
	}

	return normalizePageText(builder.String()), nil
}

func extractHTMLText(data []byte) (title, text string, err error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return "", "", err
	}

	var builder strings.Builder
	walkHTMLText(doc, false, &builder)
	return trimRunes(strings.TrimSpace(findHTMLTitle(doc)), 240), normalizePageText(builder.String()), nil
}

func findHTMLTitle(node *html.Node) string {
	if node == nil {
		return ""
	}
	if node.Type == html.ElementNode && strings.EqualFold(node.Data, "title") {
		var builder strings.Builder
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			if child.Type == html.TextNode {
				builder.WriteString(child.Data)
			}
		}
		return strings.TrimSpace(builder.String())
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if value := findHTMLTitle(child); value != "" {
			return value
		}
	}
	return ""
}

func walkHTMLText(node *html.Node, skip bool, out *strings.Builder) {
	if node == nil {
		return
	}
	if node.Type == html.ElementNode {
		switch strings.ToLower(node.Data) {
		case "script", "style", "noscript", "svg", "iframe", "head":
			skip = true
		case "p", "div", "section", "article", "li", "h1", "h2", "h3", "h4", "h5", "h6", "br", "tr":
			if out.Len() > 0 {
				out.WriteByte('\n')
			}
		}
	}
	if node.Type == html.TextNode && !skip {
		trimmed := strings.TrimSpace(node.Data)
		if trimmed != "" {
			out.WriteString(trimmed)
			out.WriteByte(' ')
		}
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		walkHTMLText(child, skip, out)
	}
}

func normalizePageText(raw string) string {
	normalized := strings.ReplaceAll(raw, "\r\n", "\n")
	normalized = strings.ToValidUTF8(normalized, "")

	lines := strings.Split(normalized, "\n")
	compact := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		compact = append(compact, strings.Join(strings.Fields(trimmed), " "))
	}
	return strings.TrimSpace(strings.Join(compact, "\n"))
}

func trimRunes(input string, maxRunes int) string {
	if maxRunes <= 0 || utf8.RuneCountInString(input) <= maxRunes {
		return input
	}
	runes := []rune(input)
	return string(runes[:maxRunes])
}
