package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/bbayvault/vault-rbac-processor/rbac"
)

// Processor runs one reconciliation.
type Processor interface {
	Process(ctx context.Context, request rbac.Request) (*rbac.Result, error)
}

// ProcessorFactory builds a processor bound to the subscription named in the
// inbound request; the ARM clients behind it are subscription-scoped.
type ProcessorFactory func(subscriptionId string) Processor

type AssignRolesHandler struct {
	factory    ProcessorFactory
	runTimeout time.Duration
}

func NewAssignRolesHandler(factory ProcessorFactory, runTimeout time.Duration) *AssignRolesHandler {
	return &AssignRolesHandler{factory: factory, runTimeout: runTimeout}
}

type assignRolesRequest struct {
	ResourceUri    string `json:"resourceUri"`
	SubscriptionId string `json:"subscriptionId"`
}

func (h *AssignRolesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Bearer ") {
		writeError(w, http.StatusUnauthorized, "Missing or invalid Authorization header")
		return
	}

	callerId, err := CallerFromToken(strings.TrimPrefix(auth, "Bearer "))
	if err != nil {
		writeError(w, http.StatusUnauthorized, err.Error())
		return
	}

	var body assignRolesRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	if body.ResourceUri == "" || body.SubscriptionId == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters: resourceUri and subscriptionId are required")
		return
	}

	// One deadline bounds the whole run; retry is the trigger's job, so the
	// reconciler itself never waits out transient failures.
	ctx, cancel := context.WithTimeout(r.Context(), h.runTimeout)
	defer cancel()

	result, err := h.factory(body.SubscriptionId).Process(ctx, rbac.Request{
		ResourceUri:    body.ResourceUri,
		SubscriptionId: body.SubscriptionId,
		CallerId:       callerId,
	})
	if err != nil {
		h.writeProcessError(w, err)
		return
	}

	status := http.StatusOK
	if !result.Success {
		// Partial failure still carries the full outcome in the body; the
		// non-2xx status makes the trigger redeliver.
		status = http.StatusInternalServerError
	}

	writeJSON(w, status, result)
}

func (h *AssignRolesHandler) writeProcessError(w http.ResponseWriter, err error) {
	var validation *rbac.ValidationError

	var denied *rbac.AuthorizationDeniedError

	switch {
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, validation.Error())
	case errors.As(err, &denied):
		writeJSON(w, http.StatusForbidden, map[string]string{
			"error":     "Unauthorized: Only the creator of the vault can assign roles",
			"userId":    denied.CallerId,
			"creatorId": denied.CreatorId,
		})
	case errors.Is(err, rbac.ErrVaultNotFound):
		writeError(w, http.StatusNotFound, "Could not retrieve vault information")
	default:
		logger.Error(fmt.Sprintf("Error processing RBAC assignment: %s", err.Error()))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Internal server error: %s", err.Error()))
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		logger.Error(fmt.Sprintf("Writing response: %s", err.Error()))
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
