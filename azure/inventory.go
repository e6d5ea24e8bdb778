package azure

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/bbayvault/vault-rbac-processor/rbac"
)

// InventoryClient implements rbac.Inventory over the key vault and storage
// management planes.
type InventoryClient struct {
	clients *Clients
}

func NewInventoryClient(clients *Clients) *InventoryClient {
	return &InventoryClient{clients: clients}
}

func (c *InventoryClient) VaultTags(ctx context.Context, vault rbac.ResourceScope) (map[string]string, error) {
	client, err := c.clients.vaults()
	if err != nil {
		return nil, err
	}

	resp, err := client.Get(ctx, vault.ResourceGroup, vault.Name, nil)
	if err != nil {
		var respErr *azcore.ResponseError
		if errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", rbac.ErrVaultNotFound, vault.Name)
		}

		return nil, fmt.Errorf("getting vault %s: %w", vault.Name, err)
	}

	return derefTags(resp.Tags), nil
}

func (c *InventoryClient) StorageAccounts(ctx context.Context, resourceGroup string) ([]rbac.StorageAccount, error) {
	client, err := c.clients.storageAccounts()
	if err != nil {
		return nil, err
	}

	accounts := make([]rbac.StorageAccount, 0)

	pager := client.NewListByResourceGroupPager(resourceGroup, nil)

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing storage accounts in %s: %w", resourceGroup, err)
		}

		for _, v := range page.Value {
			if v.ID == nil || v.Name == nil {
				continue
			}

			accounts = append(accounts, rbac.StorageAccount{
				Id:   *v.ID,
				Name: *v.Name,
				Tags: derefTags(v.Tags),
			})
		}
	}

	return accounts, nil
}

func derefTags(tags map[string]*string) map[string]string {
	result := make(map[string]string, len(tags))

	for k, v := range tags {
		if v != nil {
			result[k] = *v
		}
	}

	return result
}
