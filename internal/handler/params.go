package handler

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/pkordes/carpool/internal/domain"
	"github.com/pkordes/carpool/internal/middleware"
)

// Path and query parameters are bound with the oapi-codegen runtime so they
// follow the serialization styles declared in spec/openapi.yaml.

// pathUUID binds the {name} path segment as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Required: true})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %s must be a UUID", domain.ErrValidation, name)
	}
	return id, nil
}

// queryInt binds an optional integer query parameter.
func queryInt(q url.Values, name string) (*int, error) {
	var v *int
	if err := runtime.BindQueryParameter("form", true, false, name, q, &v); err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrValidation, name)
	}
	return v, nil
}

// queryString binds an optional string query parameter.
func queryString(q url.Values, name string) (*string, error) {
	var v *string
	if err := runtime.BindQueryParameter("form", true, false, name, q, &v); err != nil {
		return nil, fmt.Errorf("%w: invalid %s", domain.ErrValidation, name)
	}
	return v, nil
}

// pageParams reads ?page= and ?limit= (defaults: page=1, limit=20, max=100).
func pageParams(r *http.Request) (domain.PaginationParams, error) {
	q := r.URL.Query()
	page, err := queryInt(q, "page")
	if err != nil {
		return domain.PaginationParams{}, err
	}
	limit, err := queryInt(q, "limit")
	if err != nil {
		return domain.PaginationParams{}, err
	}
	return domain.NewPaginationParams(page, limit), nil
}

// principal returns the caller resolved by the authentication middleware.
func principal(r *http.Request) (domain.Principal, error) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		return domain.Principal{}, domain.ErrUnauthorized
	}
	return p, nil
}
