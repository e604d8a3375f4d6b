package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/prajjwolcodes/Kin-Bech-sub000/api/middleware"
	"github.com/prajjwolcodes/Kin-Bech-sub000/pkg/enums"
	pkgerrors "github.com/prajjwolcodes/Kin-Bech-sub000/pkg/errors"
)

// actorFromRequest resolves the authenticated user id and role seeded by the
// auth middleware.
func actorFromRequest(r *http.Request) (uuid.UUID, enums.Role, error) {
	rawID := middleware.UserIDFromContext(r.Context())
	if rawID == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	actorID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id in token")
	}
	role, err := enums.ParseRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "unknown actor role")
	}
	return actorID, role, nil
}
