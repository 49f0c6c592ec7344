package clients

import (
	"bytes"
	"context"
	"crypto"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"parkops/models"
)

const (
	paycloudMethodTransDetails = "reconcile.trans.details"
	paycloudPageSize           = 200

	// The gateway caps settlement history at roughly two months.
	paycloudDefaultWindowDays = 61

	// Settlement timestamps come back in UTC; the park runs UTC+2.
	settlementTimeOffset = 2 * time.Hour

	paycloudTimeLayout = "2006-01-02 15:04:05"
)

// PaycloudClient reads card settlement reports from the Paycloud gateway.
// Every request carries an RSA2 (SHA-256, PKCS #1 v1.5) signature over the
// sorted parameters, and every response signature is checked against the
// gateway's public key.
type PaycloudClient struct {
	baseURL    string
	appID      string
	merchantNo string
	terminals  []string

	privateKey *rsa.PrivateKey
	gatewayKey *rsa.PublicKey

	httpClient *http.Client
	now        func() time.Time
}

func NewPaycloudClient(baseURL, appID, merchantNo string, terminals []string, privateKeyPEM, gatewayPublicKeyPEM string) (*PaycloudClient, error) {
	privateKey, err := parseRSAPrivateKey(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("invalid paycloud private key: %w", err)
	}
	gatewayKey, err := parseRSAPublicKey(gatewayPublicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("invalid paycloud gateway public key: %w", err)
	}
	return &PaycloudClient{
		baseURL:    baseURL,
		appID:      appID,
		merchantNo: merchantNo,
		terminals:  terminals,
		privateKey: privateKey,
		gatewayKey: gatewayKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		now:        time.Now,
	}, nil
}

// DailyCardPayments returns one settled card total per day across all
// configured terminals. Empty bounds select the gateway's maximum window
// ending today.
func (c *PaycloudClient) DailyCardPayments(ctx context.Context, startDate, endDate string) ([]*models.DailyTotal, error) {
	if endDate == "" {
		endDate = c.now().Format("2006-01-02")
	}
	if startDate == "" {
		end, err := time.Parse("2006-01-02", endDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
		}
		startDate = end.AddDate(0, 0, -paycloudDefaultWindowDays).Format("2006-01-02")
	}

	totalsByDate := make(map[string]int64)
	for _, terminalSN := range c.terminals {
		transactions, err := c.terminalTransactions(ctx, terminalSN, startDate, endDate)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch transactions for terminal %s: %w", terminalSN, err)
		}
		for _, tran := range transactions {
			settledAt, err := time.Parse(paycloudTimeLayout, tran.TransEndTime)
			if err != nil {
				return nil, fmt.Errorf("unparseable settlement time %q: %w", tran.TransEndTime, err)
			}
			day := settledAt.Add(settlementTimeOffset).Format("2006-01-02")
			amount, err := amountToCents(tran.TransAmount.String())
			if err != nil {
				return nil, fmt.Errorf("unparseable settlement amount %q: %w", tran.TransAmount, err)
			}
			totalsByDate[day] += amount
		}
	}

	totals := make([]*models.DailyTotal, 0, len(totalsByDate))
	for date, amount := range totalsByDate {
		totals = append(totals, &models.DailyTotal{Date: date, Amount: amount})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Date < totals[j].Date })
	return totals, nil
}

type paycloudTransaction struct {
	TransEndTime string      `json:"trans_end_time"`
	TransAmount  json.Number `json:"trans_amount"`
}

func (c *PaycloudClient) terminalTransactions(ctx context.Context, terminalSN, startDate, endDate string) ([]paycloudTransaction, error) {
	var all []paycloudTransaction
	for pageNum := 1; ; pageNum++ {
		payload := map[string]any{
			"merchant_no":    c.merchantNo,
			"terminal_sn":    terminalSN,
			"price_currency": "ZAR",
			"time_start":     startDate + " 00:00:00",
			"time_end":       endDate + " 23:59:59",
			"page_num":       pageNum,
			"page_size":      paycloudPageSize,
		}
		data, err := c.send(ctx, paycloudMethodTransDetails, payload)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", pageNum, err)
		}

		var page struct {
			List []paycloudTransaction `json:"list"`
		}
		if err := json.Unmarshal([]byte(data), &page); err != nil {
			return nil, fmt.Errorf("page %d: malformed settlement data: %w", pageNum, err)
		}
		if len(page.List) == 0 {
			break
		}
		all = append(all, page.List...)
	}
	log.WithFields(log.Fields{
		"terminal": terminalSN,
		"count":    len(all),
	}).Debug("Fetched terminal settlements")
	return all, nil
}

// send posts one signed gateway request and returns the verified data
// payload, itself a JSON document.
func (c *PaycloudClient) send(ctx context.Context, method string, payload map[string]any) (string, error) {
	payload["app_id"] = c.appID
	payload["format"] = "JSON"
	payload["charset"] = "UTF-8"
	payload["sign_type"] = "RSA2"
	payload["version"] = "1.0"
	payload["timestamp"] = c.now().UnixMilli()
	payload["method"] = method

	signature, err := c.sign(payload)
	if err != nil {
		return "", fmt.Errorf("failed to sign request: %w", err)
	}
	payload["sign"] = signature

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	var response map[string]any
	if err := decoder.Decode(&response); err != nil {
		return "", fmt.Errorf("malformed gateway response: %w", err)
	}
	if err := c.verify(response); err != nil {
		return "", err
	}

	data, ok := response["data"].(string)
	if !ok {
		msg, _ := response["msg"].(string)
		return "", fmt.Errorf("gateway response has no data (msg: %q)", msg)
	}
	return data, nil
}

// sign produces the base64 RSA2 signature over the request parameters,
// concatenated "key=value&..." in ascending key order with empty values
// dropped.
func (c *PaycloudClient) sign(params map[string]any) (string, error) {
	content := canonicalParams(params)
	digest := sha256.Sum256([]byte(content))
	signature, err := rsa.SignPKCS1v15(nil, c.privateKey, crypto.SHA256, digest[:])
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(signature), nil
}

// verify checks the gateway's signature over the response fields.
func (c *PaycloudClient) verify(response map[string]any) error {
	signField, ok := response["sign"].(string)
	if !ok {
		return errors.New("gateway response is unsigned")
	}
	delete(response, "sign")

	signature, err := base64.StdEncoding.DecodeString(signField)
	if err != nil {
		return fmt.Errorf("malformed response signature: %w", err)
	}
	content := canonicalParams(response)
	digest := sha256.Sum256([]byte(content))
	if err := rsa.VerifyPKCS1v15(c.gatewayKey, crypto.SHA256, digest[:], signature); err != nil {
		return fmt.Errorf("response signature verification failed: %w", err)
	}
	return nil
}

func canonicalParams(params map[string]any) string {
	keys := make([]string, 0, len(params))
	for key, value := range params {
		if value == nil {
			continue
		}
		if s, ok := value.(string); ok && s == "" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+"="+paramString(params[key]))
	}
	return strings.Join(parts, "&")
}

func paramString(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case map[string]any, []any:
		// Nested structures sign as compact JSON.
		encoded, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(encoded)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func amountToCents(amount string) (int64, error) {
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return 0, err
	}
	return parsed.Mul(decimal.NewFromInt(100)).Round(0).IntPart(), nil
}

func parseRSAPrivateKey(pemData string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("not an RSA private key")
	}
	return key, nil
}

func parseRSAPublicKey(pemData string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, errors.New("no PEM block found")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("not an RSA public key")
	}
	return key, nil
}
