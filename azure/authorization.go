package azure

import (
	"context"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"

	"github.com/bbayvault/vault-rbac-processor/rbac"
)

// AuthorizationClient implements rbac.AssignmentClient against the ARM
// authorization provider.
type AuthorizationClient struct {
	clients *Clients
}

func NewAuthorizationClient(clients *Clients) *AuthorizationClient {
	return &AuthorizationClient{clients: clients}
}

func (c *AuthorizationClient) ListForScope(ctx context.Context, scope string) ([]rbac.Assignment, error) {
	client, err := c.clients.roleAssignments()
	if err != nil {
		return nil, err
	}

	pager := client.NewListForScopePager(scope, &armauthorization.RoleAssignmentsClientListForScopeOptions{
		Filter: to.Ptr("atScope()"),
	})

	assignments := make([]rbac.Assignment, 0)

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing role assignments at %s: %w", scope, err)
		}

		for _, v := range page.Value {
			if v.Properties == nil {
				continue
			}

			assignment := rbac.Assignment{Scope: scope}

			if v.Name != nil {
				assignment.Name = *v.Name
			}

			if v.Properties.PrincipalID != nil {
				assignment.PrincipalId = *v.Properties.PrincipalID
			}

			if v.Properties.PrincipalType != nil {
				assignment.PrincipalType = *v.Properties.PrincipalType
			}

			if v.Properties.RoleDefinitionID != nil {
				assignment.RoleDefinitionId = *v.Properties.RoleDefinitionID
			}

			assignments = append(assignments, assignment)
		}
	}

	return assignments, nil
}

func (c *AuthorizationClient) Create(ctx context.Context, scope, assignmentName string, assignment rbac.Assignment) error {
	client, err := c.clients.roleAssignments()
	if err != nil {
		return err
	}

	_, err = client.Create(ctx, scope, assignmentName, armauthorization.RoleAssignmentCreateParameters{
		Properties: &armauthorization.RoleAssignmentProperties{
			PrincipalID: to.Ptr(assignment.PrincipalId),
			// PrincipalType is set explicitly to soften directory
			// replication delays on freshly created principals.
			PrincipalType:    to.Ptr(assignment.PrincipalType),
			RoleDefinitionID: to.Ptr(assignment.RoleDefinitionId),
		},
	}, nil)

	return err
}

func (c *AuthorizationClient) Delete(ctx context.Context, scope, assignmentName string) error {
	client, err := c.clients.roleAssignments()
	if err != nil {
		return err
	}

	_, err = client.Delete(ctx, scope, assignmentName, nil)

	return err
}

// CustomRoleDefinitionId looks up a custom role by display name at the given
// scope.
//
// Deprecated: custom vault roles were abandoned in favor of the built-in
// Owner role. The lookup is kept for callers that still pass a role name and
// falls back to the built-in Owner definition when no custom role matches.
func (c *AuthorizationClient) CustomRoleDefinitionId(ctx context.Context, scope rbac.ResourceScope, roleName string) (string, error) {
	client, err := c.clients.roleDefinitions()
	if err != nil {
		return "", err
	}

	pager := client.NewListPager(scope.String(), nil)

	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return "", fmt.Errorf("listing role definitions at %s: %w", scope.String(), err)
		}

		for _, v := range page.Value {
			if v.ID != nil && v.Properties != nil && v.Properties.RoleName != nil && *v.Properties.RoleName == roleName {
				logger.Info(fmt.Sprintf("Custom role %q already exists", roleName))
				return *v.ID, nil
			}
		}
	}

	logger.Info(fmt.Sprintf("No custom role %q, using the built-in Owner role", roleName))

	return rbac.RoleDefinitionId(scope.SubscriptionId, rbac.OwnerRoleId), nil
}
