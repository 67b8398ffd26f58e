package publisher

import (
	"context"
	"errors"
	"fmt"

	"github.com/LJTian/SyndicateHub/internal/auth"
	"github.com/LJTian/SyndicateHub/internal/render"
	"google.golang.org/api/blogger/v3"
	"google.golang.org/api/option"
)

// Publisher 发布一篇文章，返回远端地址。每次成功调用都会新建一篇文章
type Publisher interface {
	Publish(ctx context.Context, p render.Post) (string, error)
}

// BloggerPublisher 通过 Blogger v3 API 发布
type BloggerPublisher struct {
	BlogID   string
	Sessions auth.SessionProvider
	// 为空时使用官方地址
	Endpoint string
}

func NewBlogger(blogID string, sessions auth.SessionProvider) *BloggerPublisher {
	return &BloggerPublisher{BlogID: blogID, Sessions: sessions}
}

func (b *BloggerPublisher) Publish(ctx context.Context, p render.Post) (string, error) {
	// 每次发布前获取凭据，刷新由 provider 负责
	ts, err := b.Sessions.Session(ctx)
	if err != nil {
		return "", fmt.Errorf("blogger: session: %w", err)
	}

	opts := []option.ClientOption{option.WithTokenSource(ts)}
	if b.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(b.Endpoint))
	}
	svc, err := blogger.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("blogger: new service: %w", err)
	}

	post, err := svc.Posts.Insert(b.BlogID, &blogger.Post{
		Title:   p.Title,
		Content: p.Content,
		Labels:  p.Labels,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("blogger: insert post: %w", err)
	}
	if post.Url == "" {
		return "", errors.New("blogger: created post has no url")
	}
	return post.Url, nil
}
