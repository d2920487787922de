// Package apiclient - клиент удаленного API эскроу-сервиса.
// Сервис владеет всеми данными и правилами, клиент только передает запросы.
package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/iurnickita/clarsix/internal/service/config"
)

var (
	ErrTransport          = errors.New("remote service unreachable")
	ErrUnauthorized       = errors.New("authentication failed")
	ErrNotFound           = errors.New("not found")
	ErrRejected           = errors.New("request rejected")
	ErrInvalidCredentials = errors.New("incorrect username or password")
)

// APIError - ответ сервиса с кодом не 2xx.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("remote status %d: %s", e.StatusCode, e.Detail)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrRejected
	}
}

const defaultTimeout = 10 * time.Second

type client struct {
	rest   *resty.Client
	zaplog *zap.Logger
}

// NewClient создает клиента API. Токен передается в каждый вызов,
// клиент не хранит состояние сессии.
func NewClient(cfg config.Config, zaplog *zap.Logger) Client {
	timeout := cfg.APITimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	c := &client{
		rest: resty.New().
			SetBaseURL(cfg.APIAddr).
			SetTimeout(timeout).
			SetHeader("Accept", "application/json"),
		zaplog: zaplog,
	}
	c.rest.OnAfterResponse(c.logResponse)
	c.rest.OnError(c.logError)
	return c
}

func (c *client) logResponse(_ *resty.Client, resp *resty.Response) error {
	c.zaplog.Debug("remote API response",
		zap.String("method", resp.Request.Method),
		zap.String("url", resp.Request.URL),
		zap.Int("code", resp.StatusCode()),
		zap.Duration("duration", resp.Time()),
	)
	return nil
}

func (c *client) logError(req *resty.Request, err error) {
	c.zaplog.Warn("remote API request failed",
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.Error(err),
	)
}

func (c *client) request(ctx context.Context, accessToken string) *resty.Request {
	req := c.rest.R().SetContext(ctx)
	if accessToken != "" {
		req.SetAuthToken(accessToken)
	}
	return req
}

// do выполняет запрос и раскладывает ответ в out (если out != nil).
func (c *client) do(req *resty.Request, method, path string, out any) ([]byte, error) {
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}

	if resp.IsError() || resp.StatusCode() >= http.StatusMultipleChoices {
		return nil, &APIError{StatusCode: resp.StatusCode(), Detail: errorDetail(resp.Body())}
	}

	body := resp.Body()
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return body, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return body, nil
}

// errorDetail достает текст ошибки: {"detail": "..."}, {"detail": [{"msg": "..."}]}
// или {"message": "..."}.
func errorDetail(body []byte) string {
	var answer struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &answer); err == nil {
		var detail string
		if json.Unmarshal(answer.Detail, &detail) == nil && detail != "" {
			return detail
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if json.Unmarshal(answer.Detail, &items) == nil && len(items) > 0 && items[0].Msg != "" {
			return items[0].Msg
		}
		if answer.Message != "" {
			return answer.Message
		}
	}
	return "Request failed"
}
