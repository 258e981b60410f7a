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

package app

import (
	"strings"
	"time"

	"github.com/bookclub/bookclub/pkg/server/database"
	"github.com/pkg/errors"
)

// BookAvailability is a book found by a search with the moment a copy can
// be borrowed
type BookAvailability struct {
	Book database.Book
	// Available is true if a copy is not on loan
	Available bool
	// AvailableFrom is the earliest return date among the loans of the book.
	// It is nil when a copy is available.
	AvailableFrom *time.Time
}

// ListBooks returns every book
func (a *App) ListBooks() ([]database.Book, error) {
	var books []database.Book
	if err := a.DB.Order("id ASC").Find(&books).Error; err != nil {
		return nil, errors.Wrap(err, "finding books")
	}

	return books, nil
}

// GetBook returns the book with the given id
func (a *App) GetBook(bookID int64) (database.Book, error) {
	return findBook(a.DB, bookID)
}

// AvailableBooks returns the books of which at least one copy is not on loan
func (a *App) AvailableBooks() ([]database.Book, error) {
	var books []database.Book
	if err := a.DB.Model(&database.Book{}).
		Select("books.*").
		Joins("JOIN ownerships ON ownerships.book_id = books.id").
		Joins("LEFT JOIN loans ON loans.book_id = ownerships.book_id AND loans.owner_id = ownerships.user_id").
		Group("books.id").
		Having("COUNT(ownerships.user_id) > COUNT(loans.owner_id)").
		Order("books.id ASC").
		Find(&books).Error; err != nil {
		return nil, errors.Wrap(err, "finding available books")
	}

	return books, nil
}

func likePattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

	return "%" + r.Replace(strings.ToLower(term)) + "%"
}

// SearchBooks returns the books whose title or author contains the given
// terms, ignoring case, together with their availability
func (a *App) SearchBooks(title, author string) ([]BookAvailability, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" && author == "" {
		return nil, ErrSearchTermRequired
	}

	conn := a.DB.Model(&database.Book{})
	switch {
	case title != "" && author != "":
		conn = conn.Where(`LOWER(title) LIKE ? ESCAPE '\' OR LOWER(author) LIKE ? ESCAPE '\'`, likePattern(title), likePattern(author))
	case title != "":
		conn = conn.Where(`LOWER(title) LIKE ? ESCAPE '\'`, likePattern(title))
	default:
		conn = conn.Where(`LOWER(author) LIKE ? ESCAPE '\'`, likePattern(author))
	}

	var books []database.Book
	if err := conn.Order("id ASC").Find(&books).Error; err != nil {
		return nil, errors.Wrap(err, "searching books")
	}
	if len(books) == 0 {
		return []BookAvailability{}, nil
	}

	bookIDs := make([]int64, len(books))
	for i, b := range books {
		bookIDs[i] = b.ID
	}

	var ownerships []database.Ownership
	if err := a.DB.Where("book_id IN (?)", bookIDs).Find(&ownerships).Error; err != nil {
		return nil, errors.Wrap(err, "finding ownerships of the results")
	}
	var loans []database.Loan
	if err := a.DB.Where("book_id IN (?)", bookIDs).Find(&loans).Error; err != nil {
		return nil, errors.Wrap(err, "finding loans of the results")
	}

	copies := map[int64]int{}
	for _, o := range ownerships {
		copies[o.BookID]++
	}
	lent := map[int64][]database.Loan{}
	for _, l := range loans {
		lent[l.BookID] = append(lent[l.BookID], l)
	}

	ret := make([]BookAvailability, 0, len(books))
	for _, b := range books {
		item := BookAvailability{Book: b}

		bookLoans := lent[b.ID]
		if copies[b.ID] > len(bookLoans) {
			item.Available = true
		} else {
			for _, l := range bookLoans {
				returnDate := l.ReturnDate
				if item.AvailableFrom == nil || returnDate.Before(*item.AvailableFrom) {
					item.AvailableFrom = &returnDate
				}
			}
		}

		ret = append(ret, item)
	}

	return ret, nil
}
