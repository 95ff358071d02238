package patron

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/velurestudio/velure-backend/pkg/config"
	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
	"github.com/velurestudio/velure-backend/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(logger.Options{ServiceName: "patron-test"})
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient(config.PatronConfig{
		BaseURL:     baseURL,
		AccessToken: "token-123",
		CampaignID:  "camp-1",
	}, testLogger(t))
	require.NoError(t, err)
	return client
}

func TestNewClientValidation(t *testing.T) {
	t.Parallel()

	logg := testLogger(t)

	tests := []struct {
		name string
		cfg  config.PatronConfig
	}{
		{name: "missing base url", cfg: config.PatronConfig{AccessToken: "t", CampaignID: "c"}},
		{name: "missing token", cfg: config.PatronConfig{BaseURL: "https://api.example.com", CampaignID: "c"}},
		{name: "missing campaign", cfg: config.PatronConfig{BaseURL: "https://api.example.com", AccessToken: "t"}},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := NewClient(tc.cfg, logg)
			assert.Error(t, err)
		})
	}

	_, err := NewClient(config.PatronConfig{BaseURL: "x", AccessToken: "t", CampaignID: "c"}, nil)
	assert.Error(t, err)
}

func TestListTiersSendsBearerToken(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/campaigns/camp-1/tiers", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"t1","title":"Gold","amount_cents":1500,"published":true}]}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	got, err := client.ListTiers(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "t1", got[0].ID)
	assert.Equal(t, int64(1500), got[0].AmountCents)
}

func TestListMembersFollowsCursors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("cursor") == "" {
			_, _ = w.Write([]byte(`{"data":[{"id":"m1","user_id":"u1"}],"cursors":{"next":"page2"}}`))
			return
		}
		assert.Equal(t, "page2", r.URL.Query().Get("cursor"))
		_, _ = w.Write([]byte(`{"data":[{"id":"m2","user_id":"u2"}],"cursors":{"next":""}}`))
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)

	got, err := client.ListMembers(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "m1", got[0].ID)
	assert.Equal(t, "m2", got[1].ID)
}

func TestClientMapsPlatformErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		status   int
		wantCode pkgerrors.Code
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantCode: pkgerrors.CodeUnauthorized},
		{name: "forbidden", status: http.StatusForbidden, wantCode: pkgerrors.CodeUnauthorized},
		{name: "server error", status: http.StatusInternalServerError, wantCode: pkgerrors.CodeDependency},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tc.status)
			}))
			defer server.Close()

			client := newTestClient(t, server.URL)

			_, err := client.ListTiers(context.Background())
			require.Error(t, err)
			assert.Equal(t, tc.wantCode, pkgerrors.As(err).Code())
		})
	}
}
