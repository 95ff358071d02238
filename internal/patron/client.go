package patron

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/velurestudio/velure-backend/pkg/config"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

var (
	errBaseURLRequired     = errors.New("patron: base url is required")
	errAccessTokenRequired = errors.New("patron: access token is required")
	errCampaignIDRequired  = errors.New("patron: campaign id is required")
	errLoggerRequired      = errors.New("patron: logger is required")
)

// PlatformTier is one purchasable tier as reported by the subscription
// platform's campaign endpoint.
type PlatformTier struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	AmountCents int64  `json:"amount_cents"`
	Published   bool   `json:"published"`
}

// PlatformMember is one pledge record. UserID carries the platform's mapping
// back to our local account id.
type PlatformMember struct {
	ID                string `json:"id"`
	UserID            string `json:"user_id"`
	TierID            string `json:"tier_id"`
	PledgeAmountCents int64  `json:"pledge_amount_cents"`
	PatronStatus      string `json:"patron_status"`
	IsCreator         bool   `json:"is_creator"`
}

type tiersResponse struct {
	Data []PlatformTier `json:"data"`
}

type membersResponse struct {
	Data    []PlatformMember `json:"data"`
	Cursors struct {
		Next string `json:"next"`
	} `json:"cursors"`
}

// Client talks to the subscription platform's campaign API with bearer-token
// auth. It is read-only: the sync path lists tiers and members and never
// writes back.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	accessToken string
	campaignID  string
	logger      *logger.Logger
}

// NewClient validates the credentials and returns a campaign API client.
func NewClient(cfg config.PatronConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	accessToken := strings.TrimSpace(cfg.AccessToken)
	if accessToken == "" {
		return nil, errAccessTokenRequired
	}
	campaignID := strings.TrimSpace(cfg.CampaignID)
	if campaignID == "" {
		return nil, errCampaignIDRequired
	}

	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     baseURL,
		accessToken: accessToken,
		campaignID:  campaignID,
		logger:      logg,
	}, nil
}

// CampaignID returns the configured campaign identifier.
func (c *Client) CampaignID() string {
	if c == nil {
		return ""
	}
	return c.campaignID
}

// ListTiers returns the campaign's current tier list.
func (c *Client) ListTiers(ctx context.Context) ([]PlatformTier, error) {
	endpoint := fmt.Sprintf("%s/v2/campaigns/%s/tiers", c.baseURL, url.PathEscape(c.campaignID))

	var out tiersResponse
	if err := c.getJSON(ctx, endpoint, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// ListMembers walks the campaign's member list, following the platform's
// cursor pagination until exhausted.
func (c *Client) ListMembers(ctx context.Context) ([]PlatformMember, error) {
	var (
		members []PlatformMember
		cursor  string
	)
	for {
		endpoint := fmt.Sprintf("%s/v2/campaigns/%s/members", c.baseURL, url.PathEscape(c.campaignID))
		if cursor != "" {
			endpoint += "?cursor=" + url.QueryEscape(cursor)
		}

		var page membersResponse
		if err := c.getJSON(ctx, endpoint, &page); err != nil {
			return nil, err
		}
		members = append(members, page.Data...)

		if page.Cursors.Next == "" {
			return members, nil
		}
		cursor = page.Cursors.Next
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, into any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "patron: building request failed")
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "patron: platform request failed")
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn(ctx, "patron: closing response body failed")
		}
	}()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "patron: platform rejected credentials")
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("patron: platform returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "patron: decoding platform response failed")
	}
	return nil
}
