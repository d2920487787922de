package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/iurnickita/clarsix/internal/model"
)

var ErrNoPaymentURL = errors.New("payment URL missing in response")

// InitiatePayment возвращает адрес страницы оплаты провайдера.
// Сервис отдает либо строку, либо объект с payment_url/authorization_url.
func (c *client) InitiatePayment(ctx context.Context, accessToken string, orderID string) (string, error) {
	req := c.request(ctx, accessToken).SetPathParam("orderId", orderID)

	body, err := c.do(req, http.MethodGet, "/payment/initiate-payment/{orderId}", nil)
	if err != nil {
		return "", err
	}
	return paymentURL(body)
}

func paymentURL(body []byte) (string, error) {
	var url string
	if err := json.Unmarshal(body, &url); err == nil && url != "" {
		return url, nil
	}
	var answer struct {
		PaymentURL       string `json:"payment_url"`
		AuthorizationURL string `json:"authorization_url"`
		Data             struct {
			AuthorizationURL string `json:"authorization_url"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &answer); err == nil {
		for _, url := range []string{answer.PaymentURL, answer.AuthorizationURL, answer.Data.AuthorizationURL} {
			if url != "" {
				return url, nil
			}
		}
	}
	if raw := strings.TrimSpace(string(body)); strings.HasPrefix(raw, "http") {
		return raw, nil
	}
	return "", ErrNoPaymentURL
}

func (c *client) PaymentCallback(ctx context.Context, accessToken string, reference string) error {
	req := c.request(ctx, accessToken).SetBody(map[string]string{"reference": reference})

	_, err := c.do(req, http.MethodPost, "/payment/payment-callback", nil)
	return err
}

func (c *client) Accounts(ctx context.Context, accessToken string) ([]model.Account, error) {
	var accounts []model.Account
	_, err := c.do(c.request(ctx, accessToken), http.MethodGet, "/accounts/", &accounts)
	return accounts, err
}
