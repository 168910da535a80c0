package cachesignal

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/assistant-support/web-sale-sub000/pkg/apihelpers"
)

// Client signals tag based invalidations to the read cache service. All
// calls are best effort: an unreachable cache service must never fail the
// mutation that triggered the signal, errors are logged and discarded.
type Client struct {
	RootURL              string
	APIKey               string
	MTLSCertificatePaths *apihelpers.CertificatePaths
	Timeout              time.Duration
}

type ClientConfigYaml struct {
	RootURL string        `json:"root_url" yaml:"root_url"`
	APIKey  string        `json:"api_key" yaml:"api_key"`
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

func NewClient(config ClientConfigYaml) *Client {
	return &Client{
		RootURL: config.RootURL,
		APIKey:  config.APIKey,
		Timeout: config.Timeout,
	}
}

type invalidateRequest struct {
	Tags []string `json:"tags"`
}

// InvalidateTags fires one invalidation call for the given tags.
func (client *Client) InvalidateTags(tags ...string) {
	if client.RootURL == "" {
		slog.Debug("cache signal client not configured, skipping invalidation")
		return
	}

	payload, err := json.Marshal(invalidateRequest{Tags: tags})
	if err != nil {
		slog.Error("unexpected error marshalling invalidation payload", slog.String("error", err.Error()))
		return
	}

	transport, err := getTransportWithMTLSConfig(client.MTLSCertificatePaths)
	if err != nil {
		slog.Error("Error creating transport with mTLS config", slog.String("error", err.Error()))
		return
	}

	httpClient := &http.Client{
		Timeout: client.Timeout,
	}
	if transport != nil {
		httpClient.Transport = transport
	}

	req, err := http.NewRequest(http.MethodPost, client.RootURL+"/invalidate", bytes.NewBuffer(payload))
	if err != nil {
		slog.Error("unexpected error in preparing http request", slog.String("error", err.Error()))
		return
	}
	if client.APIKey != "" {
		req.Header.Set("Api-Key", client.APIKey)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		slog.Debug("cache invalidation call failed", slog.String("error", err.Error()))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		slog.Debug("cache invalidation rejected", slog.Int("status", resp.StatusCode))
	}
}

func getTransportWithMTLSConfig(mTLSCertificatePaths *apihelpers.CertificatePaths) (*http.Transport, error) {
	if mTLSCertificatePaths == nil {
		return nil, nil
	}

	tlsConfig, err := apihelpers.LoadTLSConfig(*mTLSCertificatePaths)
	if err != nil {
		return nil, err
	}

	return &http.Transport{
		TLSClientConfig: tlsConfig,
	}, nil
}
