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

// NewBooks creates a new Books controller
func NewBooks(app *app.App) *Books {
	return &Books{
		app: app,
	}
}

// Books is a book controller
type Books struct {
	app *app.App
}

// Index handles GET /books
func (b *Books) Index(w http.ResponseWriter, r *http.Request) {
	books, err := b.app.ListBooks()
	if err != nil {
		handleJSONError(w, err, "listing books")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentBooks(books))
}

// Available handles GET /books/available
func (b *Books) Available(w http.ResponseWriter, r *http.Request) {
	books, err := b.app.AvailableBooks()
	if err != nil {
		handleJSONError(w, err, "listing available books")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentBooks(books))
}

type searchQuery struct {
	Title  string `schema:"title"`
	Author string `schema:"author"`
}

// Search handles GET /books/search
func (b *Books) Search(w http.ResponseWriter, r *http.Request) {
	var q searchQuery
	if err := parseQuery(r, &q); err != nil {
		handleJSONError(w, err, "parsing query")
		return
	}

	results, err := b.app.SearchBooks(q.Title, q.Author)
	if err != nil {
		handleJSONError(w, err, "searching books")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentBookAvailabilities(results))
}

// Show handles GET /books/{bookID}
func (b *Books) Show(w http.ResponseWriter, r *http.Request) {
	bookID, err := parseIDVar(r, "bookID")
	if err != nil {
		handleJSONError(w, err, "parsing book id")
		return
	}

	book, err := b.app.GetBook(bookID)
	if err != nil {
		handleJSONError(w, err, "getting book")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentBook(book))
}

// Owners handles GET /books/{bookID}/owners
func (b *Books) Owners(w http.ResponseWriter, r *http.Request) {
	bookID, err := parseIDVar(r, "bookID")
	if err != nil {
		handleJSONError(w, err, "parsing book id")
		return
	}

	owners, err := b.app.OwnersOf(bookID)
	if err != nil {
		handleJSONError(w, err, "getting owners")
		return
	}

	respondJSON(w, http.StatusOK, presenters.PresentUsers(owners))
}
