package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/bbayvault/vault-rbac-processor/global"
)

// AssociatedVaultTag links a storage account to its vault explicitly.
const AssociatedVaultTag = "AssociatedVault"

// DiscoveryStrategy records which strategy associated an account with the
// vault. Strategy order never changes membership, only the label.
type DiscoveryStrategy string

const (
	MatchedByTag      DiscoveryStrategy = "tag-match"
	MatchedByName     DiscoveryStrategy = "name-match"
	MatchedByFallback DiscoveryStrategy = "fallback-all"
)

// StorageAccount is one entry from the resource inventory.
type StorageAccount struct {
	Id   string
	Name string
	Tags map[string]string
}

// Inventory is the resource inventory provider: vault tags plus storage
// account enumeration within a single resource group.
type Inventory interface {
	VaultTags(ctx context.Context, vault ResourceScope) (map[string]string, error)
	StorageAccounts(ctx context.Context, resourceGroup string) ([]StorageAccount, error)
}

type DiscoveredAccount struct {
	Scope    ResourceScope
	Strategy DiscoveryStrategy
}

// ResourceDiscoverer finds the storage accounts associated with a vault,
// scoped to the vault's own resource group.
type ResourceDiscoverer struct {
	inventory Inventory
	logger    hclog.Logger
}

func NewResourceDiscoverer(inventory Inventory) *ResourceDiscoverer {
	return &ResourceDiscoverer{
		inventory: inventory,
		logger:    global.Logger().Named("discovery"),
	}
}

// Discover returns the deduplicated set of associated storage accounts. An
// enumeration failure aborts discovery for the run; the caller treats that as
// an empty set and skips the storage cascade.
func (d *ResourceDiscoverer) Discover(ctx context.Context, vault ResourceScope) ([]DiscoveredAccount, error) {
	accounts, err := d.inventory.StorageAccounts(ctx, vault.ResourceGroup)
	if err != nil {
		return nil, fmt.Errorf("listing storage accounts in resource group %s: %w", vault.ResourceGroup, err)
	}

	d.logger.Info(fmt.Sprintf("Found %d storage accounts in resource group %s", len(accounts), vault.ResourceGroup))

	seen := make(map[string]bool)

	var result []DiscoveredAccount

	add := func(account StorageAccount, strategy DiscoveryStrategy) {
		scope, err := ParseStorageScope(account.Id)
		if err != nil {
			d.logger.Warn(fmt.Sprintf("Skipping storage account with unexpected resource id %q: %s", account.Id, err.Error()))
			return
		}

		if seen[scope.String()] {
			return
		}

		seen[scope.String()] = true

		result = append(result, DiscoveredAccount{Scope: scope, Strategy: strategy})
	}

	for _, account := range accounts {
		if account.Tags[AssociatedVaultTag] == vault.Name {
			d.logger.Info(fmt.Sprintf("Storage account %s linked via %s tag", account.Name, AssociatedVaultTag))
			add(account, MatchedByTag)

			continue
		}

		if matchesNamingConvention(account.Name, vault.Name) {
			d.logger.Info(fmt.Sprintf("Storage account %s linked via naming convention", account.Name))
			add(account, MatchedByName)
		}
	}

	// Absence of explicit linkage means everything in the group is assumed
	// related.
	if len(result) == 0 && len(accounts) > 0 {
		d.logger.Info("No explicit associations found, including all storage accounts in the resource group")

		for _, account := range accounts {
			add(account, MatchedByFallback)
		}
	}

	return result, nil
}

func matchesNamingConvention(storageName, vaultName string) bool {
	storageLower := strings.ToLower(storageName)
	vaultLower := strings.ToLower(vaultName)

	patterns := []string{
		vaultLower + "storage",
		vaultLower + "stor",
		"stor" + vaultLower,
		vaultLower + "st",
	}

	for _, pattern := range patterns {
		if strings.Contains(storageLower, pattern) {
			return true
		}
	}

	return false
}
