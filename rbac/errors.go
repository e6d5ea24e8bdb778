package rbac

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

var (
	// ErrPrincipalNotFound means the directory returned zero matches for an
	// identifier. Resolution failure is fatal for the whole run.
	ErrPrincipalNotFound = errors.New("principal not found in directory")

	// ErrDirectoryUnavailable wraps transport or provider errors from the
	// directory service.
	ErrDirectoryUnavailable = errors.New("directory service unavailable")

	// ErrVaultNotFound means the vault named in the request does not exist.
	ErrVaultNotFound = errors.New("vault not found")
)

// ValidationError rejects a malformed request before any network call.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// AuthorizationDeniedError means the caller is not the vault's recorded
// creator. It terminates the run before any mutation.
type AuthorizationDeniedError struct {
	CallerId  string
	CreatorId string
}

func (e *AuthorizationDeniedError) Error() string {
	return fmt.Sprintf("caller %s is not the creator of the vault (creator is %s)", e.CallerId, e.CreatorId)
}

// isAlreadyExists reports a create conflict, most likely a race with another
// writer; the desired assignment exists either way.
func isAlreadyExists(err error) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.ErrorCode == "RoleAssignmentExists" {
		return true
	}

	return strings.Contains(err.Error(), "already exists")
}

// isPrincipalNotFound reports the provider rejecting a create because the
// principal has not replicated yet.
func isPrincipalNotFound(err error) bool {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) && respErr.ErrorCode == "PrincipalNotFound" {
		return true
	}

	return strings.Contains(err.Error(), "PrincipalNotFound")
}
