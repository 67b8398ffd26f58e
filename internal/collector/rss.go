package collector

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// RSSSource 从 RSS/Atom 源拉取文章，适合没有 API key 的部署
type RSSSource struct {
	FeedURL  string
	Defaults Defaults

	parser *gofeed.Parser
}

func NewRSSSource(feedURL string, d Defaults) *RSSSource {
	p := gofeed.NewParser()
	p.UserAgent = "SyndicateHubBot/1.0"
	return &RSSSource{FeedURL: feedURL, Defaults: d, parser: p}
}

func (s *RSSSource) Name() string {
	return "rss"
}

func (s *RSSSource) Fetch(ctx context.Context) ([]Article, error) {
	if s.parser == nil {
		s.parser = gofeed.NewParser()
	}
	feed, err := s.parser.ParseURLWithContext(s.FeedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("rss: fetch %s: %w", s.FeedURL, err)
	}

	out := make([]Article, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := itemToArticle(item)
		if a.ID == "" {
			continue
		}
		s.Defaults.apply(&a)
		out = append(out, a)
	}
	sortNewestFirst(out)
	return out, nil
}

func itemToArticle(item *gofeed.Item) Article {
	id := strings.TrimSpace(item.GUID)
	if id == "" {
		id = strings.TrimSpace(item.Link)
	}

	body := item.Content
	if body == "" {
		body = item.Description
	}

	var published time.Time
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed.UTC()
	}

	var category string
	if len(item.Categories) > 0 {
		category = strings.TrimSpace(item.Categories[0])
	}

	return Article{
		ID:          id,
		Title:       strings.TrimSpace(item.Title),
		Author:      itemAuthor(item),
		Body:        body,
		Image:       itemImage(item, body),
		URL:         item.Link,
		PublishedAt: published,
		Category:    category,
	}
}

func itemAuthor(item *gofeed.Item) string {
	for _, p := range item.Authors {
		if p != nil && strings.TrimSpace(p.Name) != "" {
			return strings.TrimSpace(p.Name)
		}
	}
	return ""
}

// itemImage 优先 <image>，其次第一个图片类型的 enclosure，最后取正文里的第一张图
func itemImage(item *gofeed.Item, body string) string {
	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}
	for _, enc := range item.Enclosures {
		if enc != nil && strings.HasPrefix(enc.Type, "image/") && enc.URL != "" {
			return enc.URL
		}
	}
	return firstImage(body)
}

func firstImage(body string) string {
	if !strings.Contains(body, "<img") {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	src, _ := doc.Find("img[src]").First().Attr("src")
	return strings.TrimSpace(src)
}

// sortNewestFirst 稳定排序，没有时间的条目排在最后
func sortNewestFirst(list []Article) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].PublishedAt.After(list[j].PublishedAt)
	})
}
