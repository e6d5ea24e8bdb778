package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"

	"github.com/bbayvault/vault-rbac-processor/global"
	"github.com/bbayvault/vault-rbac-processor/rbac"
)

const (
	defaultEndpoint = "https://graph.microsoft.com/v1.0"
	tokenScope      = "https://graph.microsoft.com/.default"
)

var logger hclog.Logger

func init() {
	logger = global.Logger().Named("graph")
}

// Client is the Microsoft Graph directory service. It implements
// rbac.Directory.
type Client struct {
	cred       azcore.TokenCredential
	httpClient *http.Client
	endpoint   string
}

func NewClient(cred azcore.TokenCredential) *Client {
	return &Client{
		cred:       cred,
		httpClient: cleanhttp.DefaultPooledClient(),
		endpoint:   defaultEndpoint,
	}
}

// LookupByName finds the directory object id for an exact principal-name
// match. Exactly one match is expected; zero matches resolves to
// rbac.ErrPrincipalNotFound and any provider failure to
// rbac.ErrDirectoryUnavailable.
func (c *Client) LookupByName(ctx context.Context, name string) (string, error) {
	query := url.Values{}
	query.Set("$filter", fmt.Sprintf("userPrincipalName eq '%s'", name))

	resp, err := c.get(ctx, "/users?"+query.Encode())
	if err != nil {
		return "", fmt.Errorf("%w: %s", rbac.ErrDirectoryUnavailable, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: graph returned %d: %s", rbac.ErrDirectoryUnavailable, resp.StatusCode, string(body))
	}

	var result struct {
		Value []struct {
			Id string `json:"id"`
		} `json:"value"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decoding graph response: %s", rbac.ErrDirectoryUnavailable, err.Error())
	}

	if len(result.Value) == 0 {
		return "", fmt.Errorf("%w: no principal named %s", rbac.ErrPrincipalNotFound, name)
	}

	logger.Info(fmt.Sprintf("Resolved principal %s to object id %s", name, result.Value[0].Id))

	return result.Value[0].Id, nil
}

// Classify probes the principal catalogs in fixed order and returns the kind
// of the first affirmative probe. Probe failures degrade to the
// ServicePrincipal default rather than aborting the run.
func (c *Client) Classify(ctx context.Context, id string) armauthorization.PrincipalType {
	probes := []struct {
		path string
		kind armauthorization.PrincipalType
	}{
		{"/users/" + url.PathEscape(id), armauthorization.PrincipalTypeUser},
		{"/servicePrincipals/" + url.PathEscape(id), armauthorization.PrincipalTypeServicePrincipal},
		{"/groups/" + url.PathEscape(id), armauthorization.PrincipalTypeGroup},
	}

	for _, probe := range probes {
		resp, err := c.get(ctx, probe.path)
		if err != nil {
			logger.Warn(fmt.Sprintf("Principal type probe %s failed: %s", probe.path, err.Error()))
			continue
		}

		resp.Body.Close()

		if resp.StatusCode == http.StatusOK {
			return probe.kind
		}
	}

	return armauthorization.PrincipalTypeServicePrincipal
}

func (c *Client) get(ctx context.Context, path string) (*http.Response, error) {
	token, err := c.cred.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{tokenScope}})
	if err != nil {
		return nil, fmt.Errorf("acquiring graph token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+path, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token.Token)
	req.Header.Set("Content-Type", "application/json")

	return c.httpClient.Do(req)
}
