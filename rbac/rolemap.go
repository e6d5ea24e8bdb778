package rbac

import (
	"fmt"
	"strings"
)

// Built-in role definition ids. These are global Azure constants, not
// discovered at runtime.
const (
	// Vault-level roles.
	OwnerRoleId                 = "8e3af657-a8ff-443c-a75c-2fe8c4bcb635"
	KeyVaultAdministratorRoleId = "00482a5a-887f-4fb3-b363-3b7fe8e74483"

	// Storage-level roles.
	StorageAccountContributorRoleId  = "17d1049b-9a84-46fb-8f53-869881c3d3ab"
	StorageBlobDataOwnerRoleId       = "b7e6dc6d-f1e8-4753-8033-0f276bb0955c"
	StorageBlobDataContributorRoleId = "ba92f5b4-2d11-453d-a403-e96b0029c9fe"
)

// RoleDefinitionId expands a bare role id into the subscription-qualified
// definition id used in assignments.
func RoleDefinitionId(subscriptionId, roleId string) string {
	return fmt.Sprintf("/subscriptions/%s/providers/Microsoft.Authorization/roleDefinitions/%s", subscriptionId, roleId)
}

// StorageRolesForVaultRole maps a vault-level role to the storage-level roles
// a holder of that vault role receives on associated storage accounts. An
// unmapped role yields an empty set; that is "nothing to do", not an error.
func StorageRolesForVaultRole(vaultRoleDefinitionId string) []string {
	switch {
	case strings.Contains(vaultRoleDefinitionId, OwnerRoleId):
		return []string{StorageAccountContributorRoleId, StorageBlobDataOwnerRoleId}
	case strings.Contains(vaultRoleDefinitionId, KeyVaultAdministratorRoleId):
		return []string{StorageBlobDataContributorRoleId}
	default:
		return nil
	}
}
