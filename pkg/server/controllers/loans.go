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

// extensionMessage confirms a loan extension
const extensionMessage = "Renting period was prolonged with one week"

// NewLoans creates a new Loans controller
func NewLoans(app *app.App) *Loans {
	return &Loans{
		app: app,
	}
}

// Loans is a controller for the borrowing of books
type Loans struct {
	app *app.App
}

// Index handles GET /loans
func (l *Loans) Index(w http.ResponseWriter, r *http.Request) {
	loans, err := l.app.ListLoans()
	if err != nil {
		handleJSONError(w, err, "listing loans")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentLoans(loans))
}

type loanEntryQuery struct {
	BookID  int64 `schema:"bookId,required"`
	OwnerID int64 `schema:"ownerId,required"`
}

// Show handles GET /loans/entry
func (l *Loans) Show(w http.ResponseWriter, r *http.Request) {
	var q loanEntryQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	loan, err := l.app.GetLoanByBookAndOwner(q.BookID, q.OwnerID)
	if err != nil {
		handleJSONError(w, err, "getting loan")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentLoan(loan))
}

type givenQuery struct {
	UserID int64 `schema:"userId,required"`
}

// Given handles GET /loans/given
func (l *Loans) Given(w http.ResponseWriter, r *http.Request) {
	var q givenQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	loans, err := l.app.LoansGivenBy(q.UserID)
	if err != nil {
		handleJSONError(w, err, "listing loans given")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentLoans(loans))
}

type receivedQuery struct {
	BorrowerID int64 `schema:"borrowerId,required"`
}

// Received handles GET /loans/received
func (l *Loans) Received(w http.ResponseWriter, r *http.Request) {
	var q receivedQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	loans, err := l.app.LoansReceivedBy(q.BorrowerID)
	if err != nil {
		handleJSONError(w, err, "listing loans received")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentLoans(loans))
}

type borrowQuery struct {
	BookID     int64 `schema:"bookId,required"`
	BorrowerID int64 `schema:"borrowerId,required"`
	OwnerID    int64 `schema:"ownerId,required"`
	Weeks      int   `schema:"weeks,required"`
}

// Create handles POST /loans
func (l *Loans) Create(w http.ResponseWriter, r *http.Request) {
	var q borrowQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}
	if err := authorizeActFor(r, q.BorrowerID); err != nil {
		handleJSONError(w, err, "authorizing")
		return
	}

	loan, err := l.app.Borrow(q.BookID, q.BorrowerID, q.OwnerID, q.Weeks)
	if err != nil {
		handleJSONError(w, err, "borrowing")
		return
	}

	respondMessage(w, http.StatusCreated, app.BorrowConfirmation(loan))
}

type extendQuery struct {
	BookID     int64 `schema:"bookId,required"`
	BorrowerID int64 `schema:"borrowerId,required"`
}

// Extend handles PATCH /loans
func (l *Loans) Extend(w http.ResponseWriter, r *http.Request) {
	var q extendQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}
	if err := authorizeActFor(r, q.BorrowerID); err != nil {
		handleJSONError(w, err, "authorizing")
		return
	}

	if _, err := l.app.Extend(q.BookID, q.BorrowerID); err != nil {
		handleJSONError(w, err, "extending loan")
		return
	}

	respondMessage(w, http.StatusOK, extensionMessage)
}
