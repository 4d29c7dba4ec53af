package platform

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	configuration "github.com/adlaunch-core/v2/configuration"
)

// GraphClient is a thin client for the ad platform's Graph HTTP API.
// Credentials are injected at construction; nothing here reads ambient state.
type GraphClient struct {
	endpoint          string
	apiVersion        string
	accessToken       string
	appSecret         string
	httpClient        *http.Client
	maxRetries        int
	retryBaseDelaySec int
}

func NewGraphClient(cfg *configuration.EnvConfigVals, accessToken string, appSecret string) *GraphClient {
	return &GraphClient{
		endpoint:          cfg.PlatformGraphEndpoint,
		apiVersion:        cfg.PlatformAPIVersion,
		accessToken:       accessToken,
		appSecret:         appSecret,
		httpClient:        &http.Client{Timeout: time.Duration(cfg.GraphRequestTimeoutSec) * time.Second},
		maxRetries:        cfg.GraphMaxRetries,
		retryBaseDelaySec: cfg.GraphRetryBaseDelaySec,
	}
}

type GraphError struct {
	HTTPStatus int
	Code       int    `json:"code"`
	Message    string `json:"message"`
}

func (e *GraphError) Error() string {
	return fmt.Sprintf("graph api error: http %d code %d: %s", e.HTTPStatus, e.Code, e.Message)
}

type graphErrorEnvelope struct {
	Error GraphError `json:"error"`
}

func (c *GraphClient) postForm(ctx context.Context, path string, params url.Values, out interface{}) error {
	return c.doWithRetry(ctx, http.MethodPost, path, params, out)
}

func (c *GraphClient) getForm(ctx context.Context, path string, params url.Values, out interface{}) error {
	return c.doWithRetry(ctx, http.MethodGet, path, params, out)
}

func (c *GraphClient) doWithRetry(ctx context.Context, method string, path string, params url.Values, out interface{}) error {
	var err error
	retryCount := 0
	for retryCount <= c.maxRetries {
		err = c.do(ctx, method, path, params, out)
		if err == nil {
			return nil
		}
		if !isRetriable(err) || ctx.Err() != nil {
			return err
		}
		retryCount++
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(powInt(c.retryBaseDelaySec, retryCount)) * time.Second):
		}
	}
	return err
}

func (c *GraphClient) do(ctx context.Context, method string, path string, params url.Values, out interface{}) error {
	signed := url.Values{}
	for k, vs := range params {
		signed[k] = vs
	}
	signed.Set("access_token", c.accessToken)
	signed.Set("appsecret_proof", c.appSecretProof())

	target := fmt.Sprintf("%s/%s/%s", c.endpoint, c.apiVersion, strings.TrimPrefix(path, "/"))
	var req *http.Request
	var err error
	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, method, target+"?"+signed.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, target, strings.NewReader(signed.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		envelope := graphErrorEnvelope{}
		if jsonErr := json.Unmarshal(body, &envelope); jsonErr != nil {
			envelope.Error.Message = string(body)
		}
		envelope.Error.HTTPStatus = resp.StatusCode
		log.Printf("graph call %s %s failed: %s", method, path, envelope.Error.Error())
		return &envelope.Error
	}

	if out == nil {
		return nil
	}
	err = json.Unmarshal(body, out)
	if err != nil {
		log.Printf("error unmarshalling graph response for %s: %s", path, err)
		return err
	}
	return nil
}

// HMAC-SHA256 proof of the access token, signed with the app secret.
func (c *GraphClient) appSecretProof() string {
	mac := hmac.New(sha256.New, []byte(c.appSecret))
	mac.Write([]byte(c.accessToken))
	return hex.EncodeToString(mac.Sum(nil))
}

// Transient server faults and rate limits are retried; everything else is
// surfaced to the caller immediately.
func isRetriable(err error) bool {
	gerr, ok := err.(*GraphError)
	if !ok {
		return false
	}
	if gerr.HTTPStatus == http.StatusTooManyRequests || gerr.HTTPStatus >= 500 {
		return true
	}
	switch gerr.Code {
	case 1, 2, 4, 17, 32:
		return true
	}
	return false
}

func powInt(x, y int) int {
	return int(math.Pow(float64(x), float64(y)))
}
