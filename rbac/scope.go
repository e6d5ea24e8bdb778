package rbac

import (
	"fmt"
	"strings"
)

const (
	KeyVaultNamespace = "Microsoft.KeyVault"
	VaultsType        = "vaults"

	StorageNamespace    = "Microsoft.Storage"
	StorageAccountsType = "storageAccounts"
)

// ResourceScope is a parsed ARM resource id of the form
// /subscriptions/{sub}/resourceGroups/{rg}/providers/{namespace}/{type}/{name}.
type ResourceScope struct {
	SubscriptionId string
	ResourceGroup  string
	Provider       string
	ResourceType   string
	Name           string
}

func (s ResourceScope) String() string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/%s/%s/%s",
		s.SubscriptionId, s.ResourceGroup, s.Provider, s.ResourceType, s.Name)
}

// ParseScope splits a resource id and validates the provider namespace and
// resource type at their fixed positions. Anything past the resource name is
// ignored, matching how scopes are compared by the authorization provider.
func ParseScope(resourceId, provider, resourceType string) (ResourceScope, error) {
	parts := strings.Split(resourceId, "/")
	if len(parts) < 9 || parts[6] != provider || parts[7] != resourceType {
		return ResourceScope{}, &ValidationError{
			Reason: fmt.Sprintf("invalid %s/%s resource id: %s", provider, resourceType, resourceId),
		}
	}

	return ResourceScope{
		SubscriptionId: parts[2],
		ResourceGroup:  parts[4],
		Provider:       provider,
		ResourceType:   resourceType,
		Name:           parts[8],
	}, nil
}

func ParseVaultScope(resourceId string) (ResourceScope, error) {
	return ParseScope(resourceId, KeyVaultNamespace, VaultsType)
}

func ParseStorageScope(resourceId string) (ResourceScope, error) {
	return ParseScope(resourceId, StorageNamespace, StorageAccountsType)
}
