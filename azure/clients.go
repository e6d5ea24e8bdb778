package azure

import (
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/keyvault/armkeyvault"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/storage/armstorage"
	"github.com/hashicorp/go-hclog"

	"github.com/bbayvault/vault-rbac-processor/global"
)

var logger hclog.Logger

func init() {
	logger = global.Logger().Named("azure")
}

// Clients builds the subscription-scoped ARM clients for one reconciliation
// run from a single credential.
type Clients struct {
	cred           azcore.TokenCredential
	subscriptionId string
}

func NewClients(cred azcore.TokenCredential, subscriptionId string) *Clients {
	return &Clients{cred: cred, subscriptionId: subscriptionId}
}

func (c *Clients) roleAssignments() (*armauthorization.RoleAssignmentsClient, error) {
	factory, err := armauthorization.NewClientFactory(c.subscriptionId, c.cred, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create an authorization client factory: %w", err)
	}

	return factory.NewRoleAssignmentsClient(), nil
}

func (c *Clients) roleDefinitions() (*armauthorization.RoleDefinitionsClient, error) {
	factory, err := armauthorization.NewClientFactory(c.subscriptionId, c.cred, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create an authorization client factory: %w", err)
	}

	return factory.NewRoleDefinitionsClient(), nil
}

func (c *Clients) vaults() (*armkeyvault.VaultsClient, error) {
	factory, err := armkeyvault.NewClientFactory(c.subscriptionId, c.cred, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create a key vault client factory: %w", err)
	}

	return factory.NewVaultsClient(), nil
}

func (c *Clients) storageAccounts() (*armstorage.AccountsClient, error) {
	factory, err := armstorage.NewClientFactory(c.subscriptionId, c.cred, nil)
	if err != nil {
		return nil, fmt.Errorf("could not create a storage client factory: %w", err)
	}

	return factory.NewAccountsClient(), nil
}
