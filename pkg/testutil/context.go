package testutil

import (
	"net/http"

	id "lexaudit/pkg/domain"
	"lexaudit/pkg/requestcontext"
)

// WithActor adds an actor to the request context, simulating what the auth
// middleware does for authenticated requests.
func WithActor(req *http.Request, actor requestcontext.ActorContext) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// Manager builds an ActorContext with the manager role.
func Manager(userID id.UserID, companyID id.CompanyID) requestcontext.ActorContext {
	return requestcontext.ActorContext{UserID: userID, CompanyID: companyID, Role: id.RoleManager}
}

// Auditor builds an ActorContext with the auditor role.
func Auditor(userID id.UserID, companyID id.CompanyID) requestcontext.ActorContext {
	return requestcontext.ActorContext{UserID: userID, CompanyID: companyID, Role: id.RoleAuditor}
}

// ReadOnlyUser builds an ActorContext with the plain user role.
func ReadOnlyUser(userID id.UserID, companyID id.CompanyID) requestcontext.ActorContext {
	return requestcontext.ActorContext{UserID: userID, CompanyID: companyID, Role: id.RoleUser}
}
