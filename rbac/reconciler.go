package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/bbayvault/vault-rbac-processor/global"
)

// Assignment is a role assignment as held by the access-control provider.
// Its logical identity is (scope, principal, role definition); Name is only
// the provider's storage key and never compared.
type Assignment struct {
	Name             string
	Scope            string
	PrincipalId      string
	PrincipalType    armauthorization.PrincipalType
	RoleDefinitionId string
}

// AssignmentClient is the subset of the access-control provider the
// reconciler needs.
type AssignmentClient interface {
	ListForScope(ctx context.Context, scope string) ([]Assignment, error)
	Create(ctx context.Context, scope, assignmentName string, assignment Assignment) error
	Delete(ctx context.Context, scope, assignmentName string) error
}

// AssignmentReconciler drives one (scope, role, principal) pair to the
// desired assignment state. The provider's current assignment list is the
// sole source of truth, which makes every run idempotent.
type AssignmentReconciler struct {
	client AssignmentClient
	logger hclog.Logger
}

func NewAssignmentReconciler(client AssignmentClient) *AssignmentReconciler {
	return &AssignmentReconciler{
		client: client,
		logger: global.Logger().Named("reconciler"),
	}
}

// Ensure reports success for the pair. Partial failure is reported through
// the return value, never raised; sibling pairs proceed independently.
func (r *AssignmentReconciler) Ensure(ctx context.Context, scope, roleDefinitionId string, principal Principal) bool {
	isOwner := strings.Contains(roleDefinitionId, OwnerRoleId)
	isAdmin := strings.Contains(roleDefinitionId, KeyVaultAdministratorRoleId)

	existing, err := r.client.ListForScope(ctx, scope)
	if err != nil {
		r.logger.Error(fmt.Sprintf("Listing assignments at %s failed: %s", scope, err.Error()))
		return false
	}

	alreadyAssigned := false
	hasOwner := false

	var redundant []Assignment

	for _, assignment := range existing {
		if assignment.PrincipalId != principal.Id {
			continue
		}

		if strings.Contains(assignment.RoleDefinitionId, OwnerRoleId) {
			hasOwner = true
		}

		if assignment.RoleDefinitionId == roleDefinitionId {
			alreadyAssigned = true
		} else if isOwner {
			redundant = append(redundant, assignment)
		}
	}

	// A holder of Owner is already satisfied for lesser roles, with one
	// deliberate exception: Key Vault Administrator is always assigned even
	// when Owner is held.
	if !isOwner && hasOwner && !isAdmin {
		r.logger.Info(fmt.Sprintf("Principal %s already holds Owner at %s, skipping lesser role", principal.Id, scope))
		return true
	}

	if alreadyAssigned {
		r.logger.Info(fmt.Sprintf("Role %s already assigned to %s at %s", roleDefinitionId, principal.Id, scope))

		if isOwner {
			r.deleteRedundant(ctx, scope, redundant)
		}

		return true
	}

	err = r.client.Create(ctx, scope, uuid.New().String(), Assignment{
		Scope:            scope,
		PrincipalId:      principal.Id,
		PrincipalType:    principal.Kind,
		RoleDefinitionId: roleDefinitionId,
	})

	switch {
	case err == nil:
		r.logger.Info(fmt.Sprintf("Assigned role %s to %s (%s) at %s", roleDefinitionId, principal.Id, principal.Kind, scope))
	case isAlreadyExists(err):
		r.logger.Info(fmt.Sprintf("Role assignment for %s already exists at %s", principal.Id, scope))
	case isPrincipalNotFound(err):
		// Directory replication lag. The triggering event is redelivered, so
		// the next run is expected to land the assignment.
		r.logger.Warn(fmt.Sprintf("Principal %s not found by the provider yet: %s", principal.Id, err.Error()))
		return true
	default:
		r.logger.Error(fmt.Sprintf("Assigning role %s at %s failed: %s", roleDefinitionId, scope, err.Error()))
		return false
	}

	if isOwner {
		r.deleteRedundant(ctx, scope, redundant)
	}

	return true
}

// deleteRedundant removes lower-privilege grants superseded by Owner. A
// delete failure is logged and never flips the pair's outcome.
func (r *AssignmentReconciler) deleteRedundant(ctx context.Context, scope string, redundant []Assignment) {
	if len(redundant) == 0 {
		return
	}

	r.logger.Info(fmt.Sprintf("Removing %d redundant role assignments at %s", len(redundant), scope))

	var result *multierror.Error

	for _, assignment := range redundant {
		if err := r.client.Delete(ctx, scope, assignment.Name); err != nil {
			result = multierror.Append(result, fmt.Errorf("deleting assignment %s: %w", assignment.Name, err))
			continue
		}

		r.logger.Info(fmt.Sprintf("Removed redundant role assignment %s (%s)", assignment.Name, assignment.RoleDefinitionId))
	}

	if err := result.ErrorOrNil(); err != nil {
		r.logger.Warn(fmt.Sprintf("Could not remove every redundant role assignment at %s: %s", scope, err.Error()))
	}
}
