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
	"github.com/bookclub/bookclub/pkg/server/database"
	"github.com/bookclub/bookclub/pkg/server/presenters"
)

// NewWaitlist creates a new Waitlist controller
func NewWaitlist(app *app.App) *Waitlist {
	return &Waitlist{
		app: app,
	}
}

// Waitlist is a controller for the waiting lists of lent copies
type Waitlist struct {
	app *app.App
}

type waitlistQuery struct {
	BookID int64 `schema:"bookId"`
}

// Index handles GET /waitlist. The list is restricted to one book when
// bookId is given.
func (wl *Waitlist) Index(w http.ResponseWriter, r *http.Request) {
	var q waitlistQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	var entries []database.WaitlistEntry
	var err error
	if r.URL.Query().Get("bookId") != "" {
		entries, err = wl.app.WaitlistForBook(q.BookID)
	} else {
		entries, err = wl.app.ListWaitlist()
	}
	if err != nil {
		handleJSONError(w, err, "listing waitlist")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentWaitlist(entries))
}

type joinQuery struct {
	BookID  int64 `schema:"bookId,required"`
	OwnerID int64 `schema:"ownerId,required"`
	UserID  int64 `schema:"userId,required"`
}

// Create handles POST /waitlist
func (wl *Waitlist) Create(w http.ResponseWriter, r *http.Request) {
	var q joinQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}
	if err := authorizeActFor(r, q.UserID); err != nil {
		handleJSONError(w, err, "authorizing")
		return
	}

	entry, err := wl.app.JoinWaitlist(q.BookID, q.OwnerID, q.UserID)
	if err != nil {
		handleJSONError(w, err, "joining waitlist")
		return
	}

	respondJSON(w, http.StatusCreated, presenters.PresentWaitlistEntry(entry))
}
