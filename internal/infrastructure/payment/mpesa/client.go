package mpesa

import (
	"bytes"
	"context"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/crownshift/logistics-api/internal/core/domain"
	"github.com/crownshift/logistics-api/internal/core/ports"
)

const (
	SandboxURL    = "https://sandbox.safaricom.co.ke"
	ProductionURL = "https://api.safaricom.co.ke"

	defaultTimeout  = 15 * time.Second
	timestampLayout = "20060102150405"
)

var ErrNotConfigured = errors.New("mpesa credentials not configured")

type Config struct {
	BaseURL        string
	ConsumerKey    string
	ConsumerSecret string
	ShortCode      string
	Passkey        string
	// CallbackURL is where Safaricom posts the STK result; the callback
	// secret is appended as the token query parameter.
	CallbackURL    string
	CallbackSecret string
	Timeout        time.Duration
}

// Client implements ports.MobileMoneyGateway against the Daraja API.
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
	now  func() time.Time
}

func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = SandboxURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return &Client{
		cfg:  cfg,
		http: newHTTPClient(cfg.Timeout, log),
		log:  log,
		now:  time.Now,
	}
}

type stkRequest struct {
	BusinessShortCode string `json:"BusinessShortCode"`
	Password          string `json:"Password"`
	Timestamp         string `json:"Timestamp"`
	TransactionType   string `json:"TransactionType"`
	Amount            int64  `json:"Amount"`
	PartyA            string `json:"PartyA"`
	PartyB            string `json:"PartyB"`
	PhoneNumber       string `json:"PhoneNumber"`
	CallBackURL       string `json:"CallBackURL"`
	AccountReference  string `json:"AccountReference"`
	TransactionDesc   string `json:"TransactionDesc"`
}

type stkResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
	ErrorMessage        string `json:"errorMessage"`
}

// STKPush asks the customer's handset to authorise a payment of in.Amount.
func (c *Client) STKPush(ctx context.Context, in ports.STKPushInput) (*ports.STKPushResult, error) {
	if c.cfg.ConsumerKey == "" || c.cfg.ConsumerSecret == "" || c.cfg.ShortCode == "" {
		return nil, ErrNotConfigured
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	ts := c.now().UTC().Format(timestampLayout)
	body := stkRequest{
		BusinessShortCode: c.cfg.ShortCode,
		Password:          Password(c.cfg.ShortCode, c.cfg.Passkey, ts),
		Timestamp:         ts,
		TransactionType:   "CustomerPayBillOnline",
		Amount:            in.Amount,
		PartyA:            in.Phone,
		PartyB:            c.cfg.ShortCode,
		PhoneNumber:       in.Phone,
		CallBackURL:       c.callbackURL(),
		AccountReference:  in.ShipmentID,
		TransactionDesc:   "Payment for shipment " + in.ShipmentID,
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode stk request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/mpesa/stkpush/v1/processrequest", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	var out stkResponse
	if err := c.do(req, &out); err != nil {
		return nil, fmt.Errorf("stk push: %w", err)
	}
	if out.CheckoutRequestID == "" {
		return nil, fmt.Errorf("stk push rejected: %s%s", out.ResponseDescription, out.ErrorMessage)
	}
	return &ports.STKPushResult{
		CheckoutRequestID: out.CheckoutRequestID,
		CustomerMessage:   out.CustomerMessage,
	}, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/oauth/v1/generate?grant_type=client_credentials", nil)
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(req, &out); err != nil {
		return "", fmt.Errorf("mpesa oauth: %w", err)
	}
	if out.AccessToken == "" {
		return "", errors.New("mpesa oauth: empty access token")
	}
	return out.AccessToken, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("status %d: %s", resp.StatusCode, bytes.TrimSpace(body))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) callbackURL() string {
	if c.cfg.CallbackSecret == "" {
		return c.cfg.CallbackURL
	}
	u, err := url.Parse(c.cfg.CallbackURL)
	if err != nil {
		return c.cfg.CallbackURL
	}
	q := u.Query()
	q.Set("token", c.cfg.CallbackSecret)
	u.RawQuery = q.Encode()
	return u.String()
}

// Password is the STK push password: base64(shortcode + passkey + timestamp).
func Password(shortCode, passkey, timestamp string) string {
	return base64.StdEncoding.EncodeToString([]byte(shortCode + passkey + timestamp))
}

type callbackItem struct {
	Name  string `json:"Name"`
	Value any    `json:"Value"`
}

type callbackPayload struct {
	Body struct {
		StkCallback *struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  *struct {
				Item []callbackItem `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// ParseCallback authenticates an STK callback with the shared secret and maps
// its result code to a payment status.
func (c *Client) ParseCallback(payload []byte, token string) (*ports.ProviderEvent, error) {
	if c.cfg.CallbackSecret == "" || token == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(c.cfg.CallbackSecret)) != 1 {
		return nil, domain.ErrInvalidSignature
	}

	var p callbackPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: malformed callback: %v", domain.ErrValidation, err)
	}
	cb := p.Body.StkCallback
	if cb == nil || cb.CheckoutRequestID == "" {
		return nil, fmt.Errorf("%w: callback without stkCallback", domain.ErrValidation)
	}

	ev := &ports.ProviderEvent{
		Provider:  domain.ProviderMpesa,
		ID:        cb.CheckoutRequestID,
		Type:      "stk.callback",
		Reference: cb.CheckoutRequestID,
		Status:    domain.PaymentFailed,
	}
	if cb.ResultCode == 0 {
		ev.Status = domain.PaymentPaid
	}
	if cb.CallbackMetadata != nil {
		for _, item := range cb.CallbackMetadata.Item {
			if item.Name == "AccountReference" && item.Value != nil {
				ev.ShipmentID = fmt.Sprint(item.Value)
			}
		}
	}
	c.log.Debug().
		Str("checkout_request_id", cb.CheckoutRequestID).
		Int("result_code", cb.ResultCode).
		Str("result_desc", cb.ResultDesc).
		Msg("mpesa callback parsed")
	return ev, nil
}
