package graph

import (
	"fmt"
	"log"
	"strconv"

	"github.com/graphql-go/graphql"
	"github.com/tablero-dev/tablero/internal/apierrors"
	"github.com/tablero-dev/tablero/internal/middleware"
	"github.com/tablero-dev/tablero/internal/pubsub"
	"github.com/tablero-dev/tablero/internal/services"
)

// Resolver bundles the services the GraphQL operations execute against.
// One instance is built at startup and captured by the schema closures.
type Resolver struct {
	Auth     *services.AuthService
	Cards    *services.CardService
	Projects *services.ProjectService
	Broker   *pubsub.Broker
}

// currentUser returns the authenticated caller or the unauthorized error.
// Absence of identity is never defaulted to a guest.
func currentUser(p graphql.ResolveParams) (uint64, error) {
	userID, ok := middleware.UserIDFromContext(p.Context)
	if !ok {
		return 0, apierrors.ErrUnauthorized
	}
	return userID, nil
}

// sanitizeErr converts internal failures into a generic user-safe error at
// the operation boundary. APIErrors and validation errors pass through;
// everything else is logged server-side only.
func sanitizeErr(op string, err error) error {
	switch err.(type) {
	case *apierrors.APIError:
		return err
	}
	if isValidationErr(err) {
		return err
	}
	log.Printf("%s failed: %v", op, err)
	return apierrors.ErrInternal
}

func isValidationErr(err error) bool {
	switch err {
	case services.ErrCardTitleRequired,
		services.ErrProjectTitleRequired,
		services.ErrNoProjectTarget,
		services.ErrEmailRequired,
		services.ErrPasswordTooShort:
		return true
	}
	return false
}

// idArg parses a required ID argument. GraphQL IDs travel as strings but
// variable values may arrive as numbers.
func idArg(args map[string]interface{}, name string) (uint64, error) {
	raw, exists := args[name]
	if !exists || raw == nil {
		return 0, fmt.Errorf("argument %q is required", name)
	}
	return coerceID(raw, name)
}

// optionalIDArg parses an optional ID argument, returning nil when absent.
func optionalIDArg(args map[string]interface{}, name string) (*uint64, error) {
	raw, exists := args[name]
	if !exists || raw == nil {
		return nil, nil
	}
	id, err := coerceID(raw, name)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func coerceID(raw interface{}, name string) (uint64, error) {
	switch v := raw.(type) {
	case string:
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("argument %q is not a valid ID", name)
		}
		return id, nil
	case int:
		if v < 0 {
			return 0, fmt.Errorf("argument %q is not a valid ID", name)
		}
		return uint64(v), nil
	case float64:
		if v < 0 {
			return 0, fmt.Errorf("argument %q is not a valid ID", name)
		}
		return uint64(v), nil
	default:
		return 0, fmt.Errorf("argument %q is not a valid ID", name)
	}
}

func stringArg(args map[string]interface{}, name string) (string, bool) {
	raw, exists := args[name]
	if !exists || raw == nil {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

func optionalStringArg(args map[string]interface{}, name string) *string {
	if s, ok := stringArg(args, name); ok {
		return &s
	}
	return nil
}
