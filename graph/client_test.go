package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bbayvault/vault-rbac-processor/rbac"
)

type staticCredential struct{}

func (staticCredential) GetToken(context.Context, policy.TokenRequestOptions) (azcore.AccessToken, error) {
	return azcore.AccessToken{Token: "test-token", ExpiresOn: time.Now().Add(time.Hour)}, nil
}

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)

	return &Client{
		cred:       staticCredential{},
		httpClient: srv.Client(),
		endpoint:   srv.URL,
	}, srv
}

func TestLookupByName_Found(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "userPrincipalName eq 'alice@example.com'", r.URL.Query().Get("$filter"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		fmt.Fprint(w, `{"value": [{"id": "12345678-1234-1234-1234-1234567890ab"}]}`)
	}))
	defer srv.Close()

	id, err := client.LookupByName(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "12345678-1234-1234-1234-1234567890ab", id)
}

func TestLookupByName_NoMatch(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"value": []}`)
	}))
	defer srv.Close()

	_, err := client.LookupByName(context.Background(), "ghost@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, rbac.ErrPrincipalNotFound)
}

func TestLookupByName_ProviderFailure(t *testing.T) {
	client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := client.LookupByName(context.Background(), "alice@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, rbac.ErrDirectoryUnavailable)
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		found string
		want  armauthorization.PrincipalType
	}{
		{"user", "/users/", armauthorization.PrincipalTypeUser},
		{"service principal", "/servicePrincipals/", armauthorization.PrincipalTypeServicePrincipal},
		{"group", "/groups/", armauthorization.PrincipalTypeGroup},
		{"unknown defaults to service principal", "", armauthorization.PrincipalTypeServicePrincipal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.found != "" && r.URL.Path == tt.found+"some-id" {
					fmt.Fprint(w, `{"id": "some-id"}`)
					return
				}

				http.Error(w, "not found", http.StatusNotFound)
			}))
			defer srv.Close()

			assert.Equal(t, tt.want, client.Classify(context.Background(), "some-id"))
		})
	}
}
