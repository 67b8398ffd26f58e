package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

const (
	guardianFields         = "body,thumbnail,headline,byline"
	guardianRequestTimeout = 15 * time.Second
)

// GuardianSource 通过 Guardian Content API 拉取最新文章
type GuardianSource struct {
	Endpoint string
	APIKey   string
	// 0 表示使用接口默认分页大小
	PageSize int
	Defaults Defaults
}

func (g *GuardianSource) Name() string {
	return "guardian"
}

type guardianEnvelope struct {
	Response struct {
		Status  string           `json:"status"`
		Message string           `json:"message"`
		Results []guardianResult `json:"results"`
	} `json:"response"`
}

type guardianResult struct {
	ID                 string `json:"id"`
	SectionName        string `json:"sectionName"`
	WebPublicationDate string `json:"webPublicationDate"`
	WebTitle           string `json:"webTitle"`
	WebURL             string `json:"webUrl"`
	Fields             struct {
		Headline  string `json:"headline"`
		Byline    string `json:"byline"`
		Body      string `json:"body"`
		Thumbnail string `json:"thumbnail"`
	} `json:"fields"`
}

func (g *GuardianSource) Fetch(ctx context.Context) ([]Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reqURL, host, err := g.queryURL()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, guardianRequestTimeout)
	defer cancel()

	c := colly.NewCollector(
		colly.AllowedDomains(host),
		colly.UserAgent("SyndicateHubBot/1.0"),
	)
	// colly 自己不接收 ctx，在 transport 上挂上，超时和取消都能打断请求
	c.WithTransport(ctxTransport{ctx: ctx, base: http.DefaultTransport})

	var (
		results   []Article
		decodeErr error
	)
	c.OnResponse(func(r *colly.Response) {
		results, decodeErr = decodeGuardian(r.Body, g.Defaults)
	})

	if err := c.Visit(reqURL); err != nil {
		return nil, fmt.Errorf("guardian: request: %w", err)
	}
	if decodeErr != nil {
		return nil, decodeErr
	}
	return results, nil
}

type ctxTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t ctxTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(r.WithContext(t.ctx))
}

func (g *GuardianSource) queryURL() (string, string, error) {
	u, err := url.Parse(g.Endpoint)
	if err != nil {
		return "", "", fmt.Errorf("guardian: parse endpoint: %w", err)
	}
	if u.Hostname() == "" {
		return "", "", fmt.Errorf("guardian: endpoint %q has no host", g.Endpoint)
	}

	q := u.Query()
	q.Set("order-by", "newest")
	q.Set("show-fields", guardianFields)
	q.Set("show-sections", "true")
	q.Set("api-key", g.APIKey)
	if g.PageSize > 0 {
		q.Set("page-size", strconv.Itoa(g.PageSize))
	}
	u.RawQuery = q.Encode()
	return u.String(), u.Hostname(), nil
}

func decodeGuardian(body []byte, d Defaults) ([]Article, error) {
	var env guardianEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("guardian: decode response: %w", err)
	}
	if env.Response.Status != "" && env.Response.Status != "ok" {
		msg := env.Response.Message
		if msg == "" {
			msg = env.Response.Status
		}
		return nil, errors.New("guardian: api error: " + msg)
	}

	out := make([]Article, 0, len(env.Response.Results))
	for _, r := range env.Response.Results {
		if r.ID == "" {
			continue
		}
		title := strings.TrimSpace(r.Fields.Headline)
		if title == "" {
			title = strings.TrimSpace(r.WebTitle)
		}

		a := Article{
			ID:          r.ID,
			Title:       title,
			Author:      strings.TrimSpace(r.Fields.Byline),
			Body:        r.Fields.Body,
			Image:       strings.TrimSpace(r.Fields.Thumbnail),
			URL:         r.WebURL,
			PublishedAt: parseTimestamp(r.WebPublicationDate),
			Category:    strings.TrimSpace(r.SectionName),
		}
		d.apply(&a)
		out = append(out, a)
	}
	return out, nil
}

// parseTimestamp 解析 ISO-8601 时间，失败时返回零值
func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		log.Printf("guardian: bad publication date %q: %v", s, err)
		return time.Time{}
	}
	return t.UTC()
}
