package adapter

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"lanwatch/internal/domain"
)

// UniFiConfig describes a UniFi Network controller
type UniFiConfig struct {
	Controller         string // base URL, e.g. https://192.168.1.1:8443
	Username           string
	Password           string
	Site               string
	UniFiOS            bool // UniFi OS consoles prefix the API with /proxy/network
	InsecureSkipVerify bool
	Timeout            time.Duration
}

// UniFiClient reads associated wireless stations from a UniFi controller
type UniFiClient struct {
	cfg    UniFiConfig
	logger zerolog.Logger
}

// NewUniFiClient creates a UniFi client
func NewUniFiClient(cfg UniFiConfig, logger zerolog.Logger) *UniFiClient {
	cfg.Controller = strings.TrimRight(cfg.Controller, "/")
	if cfg.Site == "" {
		cfg.Site = "default"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &UniFiClient{cfg: cfg, logger: logger}
}

// Name returns the source identifier
func (u *UniFiClient) Name() string {
	return "unifi"
}

type unifiStation struct {
	MAC      string `json:"mac"`
	Hostname string `json:"hostname"`
	Name     string `json:"name"`
	APMAC    string `json:"ap_mac"`
	IP       string `json:"ip"`
	RxBytes  int64  `json:"rx_bytes"`
	TxBytes  int64  `json:"tx_bytes"`
	IsWired  bool   `json:"is_wired"`
}

type unifiResponse struct {
	Meta struct {
		RC  string `json:"rc"`
		Msg string `json:"msg"`
	} `json:"meta"`
	Data []unifiStation `json:"data"`
}

// Fetch logs in and returns every wireless station. Each call uses a fresh
// session.
func (u *UniFiClient) Fetch(ctx context.Context) ([]domain.WirelessClient, error) {
	client, err := u.newHTTPClient()
	if err != nil {
		return nil, err
	}

	if err := u.login(ctx, client); err != nil {
		return nil, err
	}

	stationsURL := fmt.Sprintf("%s%s/api/s/%s/stat/sta", u.cfg.Controller, u.apiPrefix(), u.cfg.Site)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, stationsURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create stations request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("stations request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var stations unifiResponse
	if err := json.NewDecoder(resp.Body).Decode(&stations); err != nil {
		return nil, fmt.Errorf("failed to decode stations: %w", err)
	}
	if stations.Meta.RC != "" && stations.Meta.RC != "ok" {
		return nil, fmt.Errorf("controller returned %s: %s", stations.Meta.RC, stations.Meta.Msg)
	}

	clients := make([]domain.WirelessClient, 0, len(stations.Data))
	for _, s := range stations.Data {
		if s.IsWired {
			continue
		}
		hostname := s.Hostname
		if hostname == "" {
			hostname = s.Name
		}
		clients = append(clients, domain.WirelessClient{
			MAC:      s.MAC,
			Hostname: hostname,
			APMAC:    s.APMAC,
			IP:       s.IP,
			RxBytes:  s.RxBytes,
			TxBytes:  s.TxBytes,
		})
	}

	u.logger.Debug().Int("stations", len(clients)).Str("site", u.cfg.Site).Msg("UniFi stations fetched")
	return clients, nil
}

func (u *UniFiClient) newHTTPClient() (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &http.Client{
		Jar:     jar,
		Timeout: u.cfg.Timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: u.cfg.InsecureSkipVerify, //nolint:gosec // controllers ship self-signed certificates
			},
		},
	}, nil
}

func (u *UniFiClient) login(ctx context.Context, client *http.Client) error {
	payload, err := json.Marshal(map[string]string{
		"username": u.cfg.Username,
		"password": u.cfg.Password,
	})
	if err != nil {
		return fmt.Errorf("failed to encode login: %w", err)
	}

	loginPath := "/api/login"
	if u.cfg.UniFiOS {
		loginPath = "/api/auth/login"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.cfg.Controller+loginPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to log in to controller: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("controller login failed with status %d", resp.StatusCode)
	}
	return nil
}

func (u *UniFiClient) apiPrefix() string {
	if u.cfg.UniFiOS {
		return "/proxy/network"
	}
	return ""
}
