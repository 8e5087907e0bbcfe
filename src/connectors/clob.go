package connectors

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	logger "github.com/sirupsen/logrus"
)

// CLOBClient is the authenticated execution handle: it submits signed orders
// to the CLOB and cancels them by id. Order submissions are never retried
// automatically; a retried rejection risks double exposure.
type CLOBClient struct {
	apiKey     string
	apiSecret  string
	passphrase string
	funder     string
	http       *resty.Client
}

// NewCLOBClient builds the execution client. The secret is the L2 API secret
// in base64 (already decrypted by the caller).
func NewCLOBClient(baseURL, apiKey, apiSecret, passphrase, funder string, timeout time.Duration) *CLOBClient {
	if baseURL == "" {
		baseURL = GetConfig().CLOBBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout)

	return &CLOBClient{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		passphrase: passphrase,
		funder:     funder,
		http:       httpClient,
	}
}

// signRequest produces the L2 HMAC signature over
// timestamp + method + path + body using the base64-decoded API secret.
func (c *CLOBClient) signRequest(timestamp, method, path, body string) (string, error) {
	secret, err := base64.URLEncoding.DecodeString(c.apiSecret)
	if err != nil {
		return "", fmt.Errorf("decode api secret: %w", err)
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp + method + path + body))
	return base64.URLEncoding.EncodeToString(mac.Sum(nil)), nil
}

// doRequest sends one signed request. No automatic retry.
func (c *CLOBClient) doRequest(ctx context.Context, method, path string, body interface{}, out interface{}) (*resty.Response, error) {
	var bodyJSON string
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyJSON = string(raw)
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	sig, err := c.signRequest(timestamp, method, path, bodyJSON)
	if err != nil {
		return nil, err
	}

	req := c.http.R().
		SetContext(ctx).
		SetHeader("POLY_ADDRESS", c.funder).
		SetHeader("POLY_API_KEY", c.apiKey).
		SetHeader("POLY_PASSPHRASE", c.passphrase).
		SetHeader("POLY_TIMESTAMP", timestamp).
		SetHeader("POLY_SIGNATURE", sig)

	if bodyJSON != "" {
		req = req.SetBody(bodyJSON).SetHeader("Content-Type", "application/json")
	}
	if out != nil {
		req = req.SetResult(out)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, fmt.Errorf("clob %s %s: %w", method, path, err)
	}
	return resp, nil
}

// OrderSpec is a priced limit order (FOK or GTC shape).
type OrderSpec struct {
	TokenID string
	Price   string
	Size    string
	Side    string
	NegRisk bool
}

// MarketOrderSpec spends an exact notional amount immediately (FAK shape).
type MarketOrderSpec struct {
	TokenID string
	Amount  string
	Side    string
	NegRisk bool
}

// OrderResponse is the venue's answer to a submission.
type OrderResponse struct {
	Success  bool   `json:"success"`
	ErrorMsg string `json:"errorMsg"`
	OrderID  string `json:"orderId"`
	Status   string `json:"status"`
}

type orderRequest struct {
	Order     orderPayload `json:"order"`
	Owner     string       `json:"owner"`
	OrderType string       `json:"orderType"`
}

type orderPayload struct {
	TokenID  string `json:"tokenId"`
	Price    string `json:"price,omitempty"`
	Size     string `json:"size,omitempty"`
	Amount   string `json:"amount,omitempty"`
	Side     string `json:"side"`
	NegRisk  bool   `json:"negRisk"`
	ClientID string `json:"clientId"`
}

func newClientID() string {
	return "copy-" + uuid.NewString()
}

// PostOrder submits a priced order with the given CLOB order type. A venue
// rejection surfaces as an error alongside the parsed response.
func (c *CLOBClient) PostOrder(ctx context.Context, spec OrderSpec, orderType string) (*OrderResponse, error) {
	body := orderRequest{
		Order: orderPayload{
			TokenID:  spec.TokenID,
			Price:    spec.Price,
			Size:     spec.Size,
			Side:     spec.Side,
			NegRisk:  spec.NegRisk,
			ClientID: newClientID(),
		},
		Owner:     c.apiKey,
		OrderType: orderType,
	}

	var result OrderResponse
	resp, err := c.doRequest(ctx, resty.MethodPost, "/order", body, &result)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return &result, fmt.Errorf("clob order rejected: status %d: %s", resp.StatusCode(), result.ErrorMsg)
	}
	if !result.Success {
		return &result, fmt.Errorf("clob order rejected: %s", result.ErrorMsg)
	}

	logger.WithFields(map[string]interface{}{
		"order_id":   result.OrderID,
		"order_type": orderType,
		"token_id":   spec.TokenID,
	}).Info("order placed")

	return &result, nil
}

// PostMarketOrder submits a spend-exactly-this-notional order (FAK).
func (c *CLOBClient) PostMarketOrder(ctx context.Context, spec MarketOrderSpec) (*OrderResponse, error) {
	body := orderRequest{
		Order: orderPayload{
			TokenID:  spec.TokenID,
			Amount:   spec.Amount,
			Side:     spec.Side,
			NegRisk:  spec.NegRisk,
			ClientID: newClientID(),
		},
		Owner:     c.apiKey,
		OrderType: "FAK",
	}

	var result OrderResponse
	resp, err := c.doRequest(ctx, resty.MethodPost, "/order", body, &result)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return &result, fmt.Errorf("clob market order rejected: status %d: %s", resp.StatusCode(), result.ErrorMsg)
	}
	if !result.Success {
		return &result, fmt.Errorf("clob market order rejected: %s", result.ErrorMsg)
	}

	logger.WithFields(map[string]interface{}{
		"order_id": result.OrderID,
		"token_id": spec.TokenID,
		"amount":   spec.Amount,
	}).Info("market order placed")

	return &result, nil
}

// Cancel cancels one order by id.
func (c *CLOBClient) Cancel(ctx context.Context, orderID string) error {
	resp, err := c.doRequest(ctx, resty.MethodDelete, "/order", map[string]string{"orderID": orderID}, nil)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("clob cancel %s: unexpected status %d", orderID, resp.StatusCode())
	}
	return nil
}

// CancelAll cancels every open order for the account.
func (c *CLOBClient) CancelAll(ctx context.Context) error {
	resp, err := c.doRequest(ctx, resty.MethodDelete, "/cancel-all", nil, nil)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("clob cancel-all: unexpected status %d", resp.StatusCode())
	}
	return nil
}
