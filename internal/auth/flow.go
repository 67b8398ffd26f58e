package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

const callbackPath = "/oauth2/callback"

// authorize 在本机起一个回调服务，打印授权链接，等待浏览器带回 code
func (p *FileProvider) authorize(ctx context.Context, conf *oauth2.Config) (*oauth2.Token, error) {
	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(p.CallbackPort)))
	if err != nil {
		return nil, fmt.Errorf("auth: listen for callback: %w", err)
	}

	cfg := *conf
	cfg.RedirectURL = "http://" + ln.Addr().String() + callbackPath
	state := uuid.NewString()

	url := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	fmt.Fprintf(p.prompt(), "Open this URL in a browser to authorize Blogger access:\n\n%s\n\n", url)
	p.logger().Info("auth: waiting for authorization", "redirect", cfg.RedirectURL)

	code, err := waitForCode(ctx, ln, state)
	if err != nil {
		return nil, err
	}

	tok, err := cfg.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchange code: %w", err)
	}
	if err := writeToken(p.TokenFile, tok); err != nil {
		return nil, err
	}
	p.logger().Info("auth: token cached", "path", p.TokenFile)
	return tok, nil
}

type callbackResult struct {
	code string
	err  error
}

// waitForCode 只接受 state 匹配的第一次回调
func waitForCode(ctx context.Context, ln net.Listener, state string) (string, error) {
	results := make(chan callbackResult, 1)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.GET(callbackPath, func(c *gin.Context) {
		var res callbackResult
		switch {
		case c.Query("state") != state:
			c.String(http.StatusBadRequest, "state mismatch")
			return
		case c.Query("error") != "":
			res.err = fmt.Errorf("auth: authorization denied: %s", c.Query("error"))
		case c.Query("code") == "":
			res.err = errors.New("auth: callback without code")
		default:
			res.code = c.Query("code")
		}

		select {
		case results <- res:
		default:
		}
		if res.err != nil {
			c.String(http.StatusBadRequest, res.err.Error())
			return
		}
		c.String(http.StatusOK, "Authorization complete, you can close this window.")
	})

	srv := &http.Server{Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() { _ = srv.Serve(ln) }()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	select {
	case res := <-results:
		return res.code, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
