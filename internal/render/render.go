package render

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/LJTian/SyndicateHub/internal/collector"
)

// Post 可直接发布的内容
type Post struct {
	Title   string
	Content string
	Labels  []string
}

const dateLayout = "January 02, 2006"

// 正文按来源原样嵌入，不做转义
var postTmpl = template.Must(template.New("post").Parse(`
<div style="max-width:800px; margin:0 auto; font-family:Arial, sans-serif;">
    <h1>{{.Title}}</h1>
    <div class="meta">
        By {{.Author}}{{if .Date}} | {{.Date}}{{end}}
    </div>
{{- if .Image}}
    <img src="{{.Image}}" style="max-width:100%">
{{- end}}
    <div class="content">
        {{.Body}}
    </div>
    <div class="source">
        Original: <a href="{{.URL}}">Read on {{.SourceName}}</a>
    </div>
</div>
`))

// Renderer 把文章转成博客文章，纯函数，无 I/O
type Renderer struct {
	SourceName  string
	ExtraLabels []string
}

func New(sourceName string, extraLabels ...string) *Renderer {
	return &Renderer{SourceName: sourceName, ExtraLabels: extraLabels}
}

func (r *Renderer) Render(a collector.Article) (Post, error) {
	data := struct {
		Title, Author, Date, Image, Body, URL, SourceName string
	}{
		Title:      a.Title,
		Author:     a.Author,
		Date:       FormatDate(a),
		Image:      strings.TrimSpace(a.Image),
		Body:       lineBreaks(a.Body),
		URL:        a.URL,
		SourceName: r.SourceName,
	}

	var buf bytes.Buffer
	if err := postTmpl.Execute(&buf, data); err != nil {
		return Post{}, fmt.Errorf("render %s: %w", a.ID, err)
	}

	return Post{
		Title:   a.Title,
		Content: buf.String(),
		Labels:  r.labels(a.Category),
	}, nil
}

// FormatDate 例如 "January 03, 2024"，按 UTC 展示；时间缺失返回空串
func FormatDate(a collector.Article) string {
	if a.PublishedAt.IsZero() {
		return ""
	}
	return a.PublishedAt.UTC().Format(dateLayout)
}

func lineBreaks(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "<br>")
}

// labels 分类在前，去重去空，保持顺序
func (r *Renderer) labels(category string) []string {
	out := make([]string, 0, 1+len(r.ExtraLabels))
	seen := make(map[string]struct{}, cap(out))
	for _, l := range append([]string{category}, r.ExtraLabels...) {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
