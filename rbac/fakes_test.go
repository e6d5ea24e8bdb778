package rbac

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
)

type fakeAssignmentClient struct {
	mu          sync.Mutex
	assignments map[string][]Assignment

	listErr   error
	createErr error
	deleteErr error

	// failRole makes Create fail with createErr only for definition ids
	// containing this substring.
	failRole string

	lists   int
	creates int
	deletes int
	deleted []string
}

func newFakeAssignmentClient() *fakeAssignmentClient {
	return &fakeAssignmentClient{assignments: make(map[string][]Assignment)}
}

func (f *fakeAssignmentClient) ListForScope(_ context.Context, scope string) ([]Assignment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.lists++

	if f.listErr != nil {
		return nil, f.listErr
	}

	return append([]Assignment(nil), f.assignments[scope]...), nil
}

func (f *fakeAssignmentClient) Create(_ context.Context, scope, assignmentName string, assignment Assignment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.creates++

	if f.createErr != nil && (f.failRole == "" || strings.Contains(assignment.RoleDefinitionId, f.failRole)) {
		return f.createErr
	}

	assignment.Name = assignmentName
	assignment.Scope = scope
	f.assignments[scope] = append(f.assignments[scope], assignment)

	return nil
}

func (f *fakeAssignmentClient) Delete(_ context.Context, scope, assignmentName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.deletes++

	if f.deleteErr != nil {
		return f.deleteErr
	}

	remaining := f.assignments[scope][:0]

	for _, assignment := range f.assignments[scope] {
		if assignment.Name != assignmentName {
			remaining = append(remaining, assignment)
		}
	}

	f.assignments[scope] = remaining
	f.deleted = append(f.deleted, assignmentName)

	return nil
}

func (f *fakeAssignmentClient) holds(scope, principalId, roleDefinitionId string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, assignment := range f.assignments[scope] {
		if assignment.PrincipalId == principalId && assignment.RoleDefinitionId == roleDefinitionId {
			return true
		}
	}

	return false
}

type fakeDirectory struct {
	names     map[string]string
	kinds     map[string]armauthorization.PrincipalType
	lookupErr error
	lookups   int
}

func (f *fakeDirectory) LookupByName(_ context.Context, name string) (string, error) {
	f.lookups++

	if f.lookupErr != nil {
		return "", f.lookupErr
	}

	id, ok := f.names[name]
	if !ok {
		return "", fmt.Errorf("%w: no principal named %s", ErrPrincipalNotFound, name)
	}

	return id, nil
}

func (f *fakeDirectory) Classify(_ context.Context, id string) armauthorization.PrincipalType {
	if kind, ok := f.kinds[id]; ok {
		return kind
	}

	return armauthorization.PrincipalTypeServicePrincipal
}

type fakeInventory struct {
	tags     map[string]string
	tagsErr  error
	accounts []StorageAccount
	listErr  error
}

func (f *fakeInventory) VaultTags(_ context.Context, _ ResourceScope) (map[string]string, error) {
	if f.tagsErr != nil {
		return nil, f.tagsErr
	}

	return f.tags, nil
}

func (f *fakeInventory) StorageAccounts(_ context.Context, _ string) ([]StorageAccount, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}

	return f.accounts, nil
}

func vaultId(subscriptionId, resourceGroup, name string) string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.KeyVault/vaults/%s",
		subscriptionId, resourceGroup, name)
}

func storageId(subscriptionId, resourceGroup, name string) string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s/providers/Microsoft.Storage/storageAccounts/%s",
		subscriptionId, resourceGroup, name)
}
