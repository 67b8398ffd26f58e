package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/blogger/v3"
)

// ErrNotAuthorized 本地没有可用 token，需要先执行一次授权
var ErrNotAuthorized = errors.New("auth: no cached token, run `syndicate auth` first")

// SessionProvider 为发布方提供可用的凭据
type SessionProvider interface {
	Session(ctx context.Context) (oauth2.TokenSource, error)
}

// FileProvider 从 client_secret.json 读取 OAuth 客户端配置，token 缓存在 TokenFile
type FileProvider struct {
	ClientSecretFile string
	TokenFile        string
	// 为 true 时缺少 token 会直接进入交互式授权
	Interactive  bool
	CallbackPort int
	Log          *slog.Logger
	// 授权链接输出位置，默认 os.Stdout
	Prompt io.Writer

	mu sync.Mutex
	ts oauth2.TokenSource
}

func (p *FileProvider) Session(ctx context.Context) (oauth2.TokenSource, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ts != nil {
		return p.ts, nil
	}

	conf, err := p.oauthConfig()
	if err != nil {
		return nil, err
	}

	tok, err := readToken(p.TokenFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if !p.Interactive {
			return nil, ErrNotAuthorized
		}
		if tok, err = p.authorize(ctx, conf); err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	// 刷新用的 context 不能跟随单轮运行的 ctx 取消
	base := conf.TokenSource(context.Background(), tok)
	p.ts = &cachingTokenSource{
		base: oauth2.ReuseTokenSource(tok, base),
		path: p.TokenFile,
		last: tok,
		log:  p.logger(),
	}
	return p.ts, nil
}

// Authorize 执行一次交互式授权并写入 token 缓存
func (p *FileProvider) Authorize(ctx context.Context) error {
	conf, err := p.oauthConfig()
	if err != nil {
		return err
	}
	_, err = p.authorize(ctx, conf)
	return err
}

func (p *FileProvider) oauthConfig() (*oauth2.Config, error) {
	data, err := os.ReadFile(p.ClientSecretFile)
	if err != nil {
		return nil, fmt.Errorf("auth: read client secret: %w", err)
	}
	conf, err := google.ConfigFromJSON(data, blogger.BloggerScope)
	if err != nil {
		return nil, fmt.Errorf("auth: parse client secret: %w", err)
	}
	return conf, nil
}

func (p *FileProvider) logger() *slog.Logger {
	if p.Log != nil {
		return p.Log
	}
	return slog.Default()
}

func (p *FileProvider) prompt() io.Writer {
	if p.Prompt != nil {
		return p.Prompt
	}
	return os.Stdout
}

// cachingTokenSource token 变化（刷新）后写回缓存文件
type cachingTokenSource struct {
	base oauth2.TokenSource
	path string
	log  *slog.Logger

	mu   sync.Mutex
	last *oauth2.Token
}

func (c *cachingTokenSource) Token() (*oauth2.Token, error) {
	tok, err := c.base.Token()
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil || c.last.AccessToken != tok.AccessToken {
		if err := writeToken(c.path, tok); err != nil {
			c.log.Warn("auth: cache refreshed token failed", "path", c.path, "err", err)
		}
		c.last = tok
	}
	return tok, nil
}

// storedToken 兼容 oauth2.Token 与 google-auth 的 authorized_user 格式
type storedToken struct {
	AccessToken  string    `json:"access_token,omitempty"`
	Token        string    `json:"token,omitempty"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

func readToken(path string) (*oauth2.Token, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var st storedToken
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("auth: parse token %s: %w", path, err)
	}
	tok := &oauth2.Token{
		AccessToken:  st.AccessToken,
		TokenType:    st.TokenType,
		RefreshToken: st.RefreshToken,
		Expiry:       st.Expiry,
	}
	if tok.AccessToken == "" {
		tok.AccessToken = st.Token
	}
	if tok.AccessToken == "" && tok.RefreshToken == "" {
		return nil, fmt.Errorf("auth: token %s has neither access nor refresh token", path)
	}
	return tok, nil
}

func writeToken(path string, tok *oauth2.Token) error {
	data, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("auth: write token: %w", err)
	}
	return os.Rename(tmp, path)
}
