package rbac

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/stretchr/testify/assert"
)

func responseError(code string) error {
	return &azcore.ResponseError{
		ErrorCode:  code,
		StatusCode: http.StatusConflict,
		RawResponse: &http.Response{
			Request:    &http.Request{Method: http.MethodPut},
			StatusCode: http.StatusConflict,
		},
	}
}

func TestIsAlreadyExists(t *testing.T) {
	assert.True(t, isAlreadyExists(responseError("RoleAssignmentExists")))
	assert.True(t, isAlreadyExists(errors.New("the role assignment already exists")))
	assert.True(t, isAlreadyExists(fmt.Errorf("creating assignment: %w", responseError("RoleAssignmentExists"))))
	assert.False(t, isAlreadyExists(errors.New("AuthorizationFailed")))
}

func TestIsPrincipalNotFound(t *testing.T) {
	assert.True(t, isPrincipalNotFound(responseError("PrincipalNotFound")))
	assert.True(t, isPrincipalNotFound(errors.New("PrincipalNotFound: principal abc does not exist")))
	assert.False(t, isPrincipalNotFound(errors.New("vault not found")))
}
