/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package controllers

import (
	"net/http"

	"github.com/bookclub/bookclub/pkg/server/app"
	"github.com/bookclub/bookclub/pkg/server/context"
	mw "github.com/bookclub/bookclub/pkg/server/middleware"
	"github.com/bookclub/bookclub/pkg/server/permissions"
	"github.com/bookclub/bookclub/pkg/server/presenters"
	"github.com/pkg/errors"
)

// NewUsers creates a new Users controller.
func NewUsers(app *app.App) *Users {
	return &Users{
		app: app,
	}
}

// Users is a user controller.
type Users struct {
	app *app.App
}

// RegistrationForm is the payload for registering
type RegistrationForm struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
}

// Register handles POST /register
func (u *Users) Register(w http.ResponseWriter, r *http.Request) {
	var form RegistrationForm
	if err := parseRequestData(r, &form); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	user, err := u.app.Register(app.UserParams{
		Username:  form.Username,
		Email:     form.Email,
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Password:  form.Password,
	})
	if err != nil {
		handleJSONError(w, err, "registering user")
		return
	}

	respondJSON(w, http.StatusCreated, presenters.PresentUser(user))
}

type confirmQuery struct {
	Token string `schema:"token,required"`
}

// ConfirmEmail handles GET /register/confirm
func (u *Users) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	var q confirmQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	user, err := u.app.ConfirmEmail(q.Token)
	if err != nil {
		handleJSONError(w, err, "confirming email")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentUser(user))
}

// SigninForm is the payload for signing in. Login is a username or an email.
type SigninForm struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// SessionResponse is a response containing a session information
type SessionResponse struct {
	Key       string `json:"key"`
	ExpiresAt int64  `json:"expires_at"`
}

// SignIn handles POST /signin
func (u *Users) SignIn(w http.ResponseWriter, r *http.Request) {
	var form SigninForm
	if err := parseRequestData(r, &form); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}
	if form.Login == "" || form.Password == "" {
		handleJSONError(w, app.ErrLoginInvalid, "validating payload")
		return
	}

	user, err := u.app.Authenticate(form.Login, form.Password)
	if err != nil {
		handleJSONError(w, err, "authenticating")
		return
	}

	session, err := u.app.SignIn(user)
	if err != nil {
		handleJSONError(w, err, "signing in")
		return
	}

	setSessionCookie(w, session.Key, session.ExpiresAt)
	respondJSON(w, http.StatusOK, SessionResponse{
		Key:       session.Key,
		ExpiresAt: session.ExpiresAt.Unix(),
	})
}

// SignOut handles POST /signout
func (u *Users) SignOut(w http.ResponseWriter, r *http.Request) {
	key, err := mw.GetCredential(r)
	if err != nil {
		handleJSONError(w, app.ErrLoginRequired, "getting credentials")
		return
	}

	if key != "" {
		if err := u.app.DeleteSession(key); err != nil {
			handleJSONError(w, errors.Wrap(err, "deleting session"), "signing out")
			return
		}
	}

	unsetSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

// Index handles GET /users
func (u *Users) Index(w http.ResponseWriter, r *http.Request) {
	users, err := u.app.ListUsers()
	if err != nil {
		handleJSONError(w, err, "listing users")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentUsers(users))
}

// Show handles GET /users/{userID}
func (u *Users) Show(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDVar(r, "userID")
	if err != nil {
		handleJSONError(w, err, "parsing user id")
		return
	}

	user, err := u.app.GetUser(userID)
	if err != nil {
		handleJSONError(w, err, "getting user")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentUser(user))
}

// Books handles GET /users/{userID}/books
func (u *Users) Books(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDVar(r, "userID")
	if err != nil {
		handleJSONError(w, err, "parsing user id")
		return
	}

	books, err := u.app.BooksOwnedBy(userID)
	if err != nil {
		handleJSONError(w, err, "getting owned books")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentBooks(books))
}

type lookupQuery struct {
	Username string `schema:"username"`
	Email    string `schema:"email"`
}

// Lookup handles GET /users/lookup
func (u *Users) Lookup(w http.ResponseWriter, r *http.Request) {
	var q lookupQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	user, err := u.app.GetUserByUsernameOrEmail(q.Username, q.Email)
	if err != nil {
		handleJSONError(w, err, "looking up user")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentUser(user))
}

// Delete handles DELETE /users/{userID}. Members may only delete
// themselves.
func (u *Users) Delete(w http.ResponseWriter, r *http.Request) {
	userID, err := parseIDVar(r, "userID")
	if err != nil {
		handleJSONError(w, err, "parsing user id")
		return
	}

	current := context.User(r.Context())
	if !permissions.Can(current, permissions.UserDelete) && current.ID != userID {
		handleJSONError(w, errForbidden, "authorizing")
		return
	}

	if err := u.app.DeleteUser(userID); err != nil {
		handleJSONError(w, err, "deleting user")
		return
	}

	respondMessage(w, http.StatusOK, "User deleted")
}
