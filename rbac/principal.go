package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"
	"github.com/google/uuid"
)

// Principal is a resolved identity. It is resolved exactly once per
// reconciliation run and reused for every scope touched in that run.
type Principal struct {
	// Id is the canonical, hyphenated object id used for every equality
	// comparison against existing assignments.
	Id   string
	Kind armauthorization.PrincipalType

	// Raw is the identifier the caller originally supplied.
	Raw string
}

// Directory is the subset of the directory service the resolver needs.
// LookupByName returns the object id for an exact principal-name match;
// zero matches is ErrPrincipalNotFound and a provider failure is
// ErrDirectoryUnavailable. Classify probes the principal catalogs and
// degrades to ServicePrincipal when no probe is affirmative.
type Directory interface {
	LookupByName(ctx context.Context, name string) (string, error)
	Classify(ctx context.Context, id string) armauthorization.PrincipalType
}

type PrincipalResolver struct {
	directory Directory
}

func NewPrincipalResolver(directory Directory) *PrincipalResolver {
	return &PrincipalResolver{directory: directory}
}

// Resolve turns an identifier (object id with or without separators, or an
// email-like principal name) into a canonical Principal.
func (r *PrincipalResolver) Resolve(ctx context.Context, identifier string) (Principal, error) {
	id := identifier

	if !isCanonicalId(identifier) {
		resolved, err := r.directory.LookupByName(ctx, identifier)
		if err != nil {
			return Principal{}, fmt.Errorf("resolving principal %q: %w", identifier, err)
		}

		id = resolved
	}

	id = NormalizeId(id)

	return Principal{
		Id:   id,
		Kind: r.directory.Classify(ctx, id),
		Raw:  identifier,
	}, nil
}

func isCanonicalId(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}

// NormalizeId rewrites a 32-hex-digit id into the hyphenated canonical form.
// Anything of another length is returned unchanged; callers that pass opaque
// identifiers get them back verbatim.
func NormalizeId(id string) string {
	stripped := strings.ReplaceAll(id, "-", "")
	if len(stripped) != 32 {
		return id
	}

	return fmt.Sprintf("%s-%s-%s-%s-%s",
		stripped[0:8], stripped[8:12], stripped[12:16], stripped[16:20], stripped[20:32])
}
