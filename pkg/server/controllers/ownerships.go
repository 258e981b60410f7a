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
	"github.com/bookclub/bookclub/pkg/server/presenters"
)

// NewOwnerships creates a new Ownerships controller
func NewOwnerships(app *app.App) *Ownerships {
	return &Ownerships{
		app: app,
	}
}

// Ownerships is a controller for the copies owned by the members
type Ownerships struct {
	app *app.App
}

// Index handles GET /ownerships
func (o *Ownerships) Index(w http.ResponseWriter, r *http.Request) {
	ownerships, err := o.app.ListOwnerships()
	if err != nil {
		handleJSONError(w, err, "listing ownerships")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentOwnerships(ownerships))
}

type ownerQuery struct {
	UserID int64 `schema:"userId,required"`
}

type copyQuery struct {
	BookID int64 `schema:"bookId,required"`
	UserID int64 `schema:"userId,required"`
}

// BookForm is the payload describing a book
type BookForm struct {
	Title   string `json:"title"`
	Author  string `json:"author"`
	Edition string `json:"edition"`
}

// Create handles POST /ownerships
func (o *Ownerships) Create(w http.ResponseWriter, r *http.Request) {
	var q ownerQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}
	if err := authorizeActFor(r, q.UserID); err != nil {
		handleJSONError(w, err, "authorizing")
		return
	}

	var form BookForm
	if err := parseRequestData(r, &form); err != nil {
		handleJSONError(w, err, "parsing payload")
		return
	}

	ownership, err := o.app.AddOwnership(q.UserID, app.BookParams{
		Title:   form.Title,
		Author:  form.Author,
		Edition: form.Edition,
	})
	if err != nil {
		handleJSONError(w, err, "adding ownership")
		return
	}

	respondJSON(w, http.StatusCreated, presenters.PresentOwnership(ownership))
}

// Delete handles DELETE /ownerships
func (o *Ownerships) Delete(w http.ResponseWriter, r *http.Request) {
	var q copyQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}
	if err := authorizeActFor(r, q.UserID); err != nil {
		handleJSONError(w, err, "authorizing")
		return
	}

	removal, err := o.app.RemoveOwnership(q.BookID, q.UserID)
	if err != nil {
		handleJSONError(w, err, "removing ownership")
		return
	}

	msg := "Ownership removed"
	if removal.BookDeleted {
		msg = "Ownership removed and book deleted"
	}

	respondMessage(w, http.StatusOK, msg)
}

// OwnershipCheckResponse tells whether a user owns a copy of a book
type OwnershipCheckResponse struct {
	Owned bool `json:"owned"`
}

// Check handles GET /ownerships/check
func (o *Ownerships) Check(w http.ResponseWriter, r *http.Request) {
	var q copyQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	owned, err := o.app.IsOwnedBy(q.BookID, q.UserID)
	if err != nil {
		handleJSONError(w, err, "checking ownership")
		return
	}

	respondJSON(w, http.StatusOK, OwnershipCheckResponse{Owned: owned})
}
