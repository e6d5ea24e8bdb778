package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/bbayvault/vault-rbac-processor/global"
)

// CreatedByTag records the object id of the principal that created the vault.
const CreatedByTag = "CreatedByID"

// Request is one reconciliation trigger. CallerId comes from the already
// authenticated transport layer.
type Request struct {
	ResourceUri    string
	SubscriptionId string
	CallerId       string
}

// StorageOutcome reports the storage-scope cascade: per account, per role id,
// whether the pair reached the desired state.
type StorageOutcome struct {
	Discovered  int                        `json:"discovered"`
	Assignments map[string]map[string]bool `json:"assignments"`
	Success     bool                       `json:"success"`
}

// Result is the outcome of one run. Overall success is the logical AND over
// every attempted (scope, role) pair.
type Result struct {
	Success           bool           `json:"success"`
	OwnerRoleAssigned bool           `json:"ownerRoleAssigned"`
	AdminRoleAssigned bool           `json:"adminRoleAssigned"`
	ResourceUri       string         `json:"resourceUri"`
	PrincipalId       string         `json:"userId"`
	IsCreator         bool           `json:"isCreator"`
	StorageAccounts   StorageOutcome `json:"storageAccounts"`
}

// Processor sequences one run: creator check, vault-scope reconciliation,
// discovery, then the conditional storage-scope cascade.
type Processor struct {
	resolver   *PrincipalResolver
	reconciler *AssignmentReconciler
	discoverer *ResourceDiscoverer
	inventory  Inventory
	logger     hclog.Logger
}

func NewProcessor(assignments AssignmentClient, directory Directory, inventory Inventory) *Processor {
	return &Processor{
		resolver:   NewPrincipalResolver(directory),
		reconciler: NewAssignmentReconciler(assignments),
		discoverer: NewResourceDiscoverer(inventory),
		inventory:  inventory,
		logger:     global.Logger().Named("processor"),
	}
}

func (p *Processor) Process(ctx context.Context, request Request) (*Result, error) {
	if request.ResourceUri == "" || request.SubscriptionId == "" {
		return nil, &ValidationError{Reason: "resourceUri and subscriptionId are required"}
	}

	vault, err := ParseVaultScope(request.ResourceUri)
	if err != nil {
		return nil, err
	}

	// Resolved once; every scope touched in this run reuses this principal.
	principal, err := p.resolver.Resolve(ctx, request.CallerId)
	if err != nil {
		return nil, err
	}

	tags, err := p.inventory.VaultTags(ctx, vault)
	if err != nil {
		return nil, fmt.Errorf("retrieving vault %s: %w", vault.Name, err)
	}

	isCreator := false

	if creator := tags[CreatedByTag]; creator == "" {
		p.logger.Warn(fmt.Sprintf("Vault %s has no %s tag, cannot verify creator", vault.Name, CreatedByTag))
	} else if !strings.EqualFold(creator, principal.Id) {
		return nil, &AuthorizationDeniedError{CallerId: principal.Id, CreatorId: creator}
	} else {
		isCreator = true
	}

	ownerDefinition := RoleDefinitionId(request.SubscriptionId, OwnerRoleId)
	adminDefinition := RoleDefinitionId(request.SubscriptionId, KeyVaultAdministratorRoleId)

	// Both vault roles are attempted regardless of each other's outcome.
	vaultScope := vault.String()
	ownerAssigned := p.reconciler.Ensure(ctx, vaultScope, ownerDefinition, principal)
	adminAssigned := p.reconciler.Ensure(ctx, vaultScope, adminDefinition, principal)

	accounts, err := p.discoverer.Discover(ctx, vault)
	if err != nil {
		// Fail closed: without a trustworthy inventory the cascade is
		// skipped and the redelivered trigger picks it up.
		p.logger.Error(fmt.Sprintf("Storage discovery for vault %s failed: %s", vault.Name, err.Error()))
		accounts = nil
	}

	var cascadeDefinition string

	switch {
	case ownerAssigned:
		cascadeDefinition = ownerDefinition
	case adminAssigned:
		cascadeDefinition = adminDefinition
	default:
		p.logger.Warn("No vault role landed, skipping storage cascade")
	}

	storage := p.cascade(ctx, cascadeDefinition, accounts, principal)
	storage.Discovered = len(accounts)

	result := &Result{
		Success:           ownerAssigned && adminAssigned && storage.Success,
		OwnerRoleAssigned: ownerAssigned,
		AdminRoleAssigned: adminAssigned,
		ResourceUri:       request.ResourceUri,
		PrincipalId:       principal.Id,
		IsCreator:         isCreator,
		StorageAccounts:   storage,
	}

	if result.Success {
		p.logger.Info(fmt.Sprintf("Assigned all vault and storage roles to %s (%d storage accounts)", principal.Id, len(accounts)))
	} else {
		p.logger.Error(fmt.Sprintf("One or more role assignments failed for %s: owner=%t admin=%t storage=%t",
			principal.Id, ownerAssigned, adminAssigned, storage.Success))
	}

	return result, nil
}

// cascade reconciles the mapped storage roles on every discovered account.
// The vault-scope outcomes are fully known by now, and the storage scopes are
// independent of each other, so accounts run concurrently.
func (p *Processor) cascade(ctx context.Context, vaultRoleDefinitionId string, accounts []DiscoveredAccount, principal Principal) StorageOutcome {
	outcome := StorageOutcome{
		Assignments: make(map[string]map[string]bool),
		Success:     true,
	}

	if vaultRoleDefinitionId == "" || len(accounts) == 0 {
		return outcome
	}

	storageRoles := StorageRolesForVaultRole(vaultRoleDefinitionId)
	if len(storageRoles) == 0 {
		p.logger.Info(fmt.Sprintf("No storage roles mapped for %s, nothing to do", vaultRoleDefinitionId))
		return outcome
	}

	group, groupCtx := errgroup.WithContext(ctx)

	for _, account := range accounts {
		perRole := make(map[string]bool, len(storageRoles))
		outcome.Assignments[account.Scope.Name] = perRole

		group.Go(func() error {
			for _, roleId := range storageRoles {
				definition := RoleDefinitionId(account.Scope.SubscriptionId, roleId)
				perRole[roleId] = p.reconciler.Ensure(groupCtx, account.Scope.String(), definition, principal)
			}

			return nil
		})
	}

	_ = group.Wait()

	for _, perRole := range outcome.Assignments {
		for _, ok := range perRole {
			if !ok {
				outcome.Success = false
			}
		}
	}

	return outcome
}
