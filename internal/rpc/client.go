package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/halvorsen/ecom-order-core/internal/apperr"
)

const applicationJSON = "application/json"

// Client is the outbound half of the RPC contract: it posts an Envelope,
// which carries the route, to baseURL and decodes the response body into the caller's type,
// mirroring the teacher client's post/unmarshal pattern.
type Client struct {
	baseURL string
	usrID   uint32
	http    *http.Client
}

func NewClient(baseURL string, usrID uint32, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{baseURL: baseURL, usrID: usrID, http: httpClient}
}

// Call sends payload on route and decodes the response into out.
func (c *Client) Call(ctx context.Context, route string, payload any, out any) error {
	env, err := NewEnvelope(c.usrID, time.Now(), route, payload)
	if err != nil {
		return apperr.New(apperr.KindInvalidJSONFormat, "rpc.Client.Call", err.Error())
	}

	body, err := json.Marshal(env)
	if err != nil {
		return apperr.New(apperr.KindInvalidJSONFormat, "rpc.Client.Call", err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return apperr.New(apperr.KindRemoteDbServerFail, "rpc.Client.Call", err.Error())
	}
	req.Header.Set("Content-Type", applicationJSON)

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.New(apperr.KindRemoteDbServerFail, "rpc.Client.Call", err.Error())
	}
	defer resp.Body.Close()

	bz, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.New(apperr.KindRemoteDbServerFail, "rpc.Client.Call", err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		return apperr.New(apperr.KindRemoteDbServerFail, "rpc.Client.Call", fmt.Sprintf("status %d: %s", resp.StatusCode, string(bz)))
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(bz, out); err != nil {
		return apperr.New(apperr.KindInvalidJSONFormat, "rpc.Client.Call", err.Error())
	}
	return nil
}
