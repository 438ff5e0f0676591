package api

import (
	"errors"
	"net/http"

	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/contextkeys"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/httputil"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/sessions"
	"github.com/Cody-Howell/HowlDev.Web.Authentication/pkg/store"
)

type credentialsRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type signInResponse struct {
	Key string `json:"key"`
}

type roleRequest struct {
	Role int `json:"role"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Name, "name") || !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	acct, err := s.sessions.SignUp(r.Context(), req.Name, req.Password)
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			httputil.WriteConflict(w, "account name is already taken")
			return
		}
		s.logger.WithError(err).Error("sign-up failed")
		httputil.WriteInternalError(w, errors.New("could not create account"))
		return
	}
	httputil.WriteCreated(w, acct)
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	key, err := s.sessions.SignIn(r.Context(), req.Name, req.Password)
	if err != nil {
		if errors.Is(err, sessions.ErrInvalidCredentials) {
			httputil.WriteUnauthorized(w, "invalid credentials")
			return
		}
		s.logger.WithError(err).Error("sign-in failed")
		httputil.WriteInternalError(w, errors.New("could not sign in"))
		return
	}
	httputil.WriteSuccess(w, signInResponse{Key: key})
}

func (s *Server) whoAmI(w http.ResponseWriter, r *http.Request) {
	id := contextkeys.GetIdentity(r.Context())
	if id == nil {
		httputil.WriteUnauthorized(w, "not authenticated")
		return
	}
	httputil.WriteSuccess(w, id)
}

func (s *Server) signOut(w http.ResponseWriter, r *http.Request) {
	id := contextkeys.GetIdentity(r.Context())
	if id == nil {
		httputil.WriteUnauthorized(w, "not authenticated")
		return
	}

	key := r.Header.Get(s.opts.KeyHeader)
	if err := s.sessions.SignOut(r.Context(), id.ID, key); err != nil && !errors.Is(err, store.ErrNotFound) {
		s.logger.WithError(err).Error("sign-out failed")
		httputil.WriteInternalError(w, errors.New("could not sign out"))
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) signOutAll(w http.ResponseWriter, r *http.Request) {
	id := contextkeys.GetIdentity(r.Context())
	if id == nil {
		httputil.WriteUnauthorized(w, "not authenticated")
		return
	}

	if err := s.sessions.SignOutAll(r.Context(), id.ID); err != nil {
		s.logger.WithError(err).Error("sign-out-all failed")
		httputil.WriteInternalError(w, errors.New("could not sign out"))
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) updateRole(w http.ResponseWriter, r *http.Request) {
	name, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}
	var req roleRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	if err := s.sessions.UpdateRole(r.Context(), name, req.Role); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFound(w, "account not found")
			return
		}
		s.logger.WithError(err).Error("role update failed")
		httputil.WriteInternalError(w, errors.New("could not update role"))
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) changePassword(w http.ResponseWriter, r *http.Request) {
	name, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}
	if !s.selfOrAdmin(w, r, name) {
		return
	}
	var req passwordRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}
	if !httputil.RequireNonEmpty(w, req.Password, "password") {
		return
	}

	if err := s.sessions.ChangePassword(r.Context(), name, req.Password); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFound(w, "account not found")
			return
		}
		s.logger.WithError(err).Error("password change failed")
		httputil.WriteInternalError(w, errors.New("could not change password"))
		return
	}
	httputil.WriteNoContent(w)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	name, ok := httputil.ParsePathStringOrError(w, r, "name")
	if !ok {
		return
	}
	if !s.selfOrAdmin(w, r, name) {
		return
	}

	if err := s.sessions.DeleteAccount(r.Context(), name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			httputil.WriteNotFound(w, "account not found")
			return
		}
		s.logger.WithError(err).Error("account deletion failed")
		httputil.WriteInternalError(w, errors.New("could not delete account"))
		return
	}
	httputil.WriteNoContent(w)
}

// selfOrAdmin allows an account to manage itself and admins to manage
// anyone. Writes the rejection when not allowed.
func (s *Server) selfOrAdmin(w http.ResponseWriter, r *http.Request, name string) bool {
	id := contextkeys.GetIdentity(r.Context())
	if id == nil {
		httputil.WriteUnauthorized(w, "not authenticated")
		return false
	}
	if id.Account != name && id.Role < s.opts.AdminRole {
		httputil.WriteErrorMessage(w, http.StatusForbidden, "insufficient permissions")
		return false
	}
	return true
}
