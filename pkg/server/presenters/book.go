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

package presenters

import (
	"time"

	"github.com/bookclub/bookclub/pkg/server/app"
	"github.com/bookclub/bookclub/pkg/server/database"
)

// Book is a result of PresentBooks
type Book struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Edition   string    `json:"edition"`
}

// PresentBook presents a book
func PresentBook(book database.Book) Book {
	return Book{
		ID:        book.ID,
		CreatedAt: FormatTS(book.CreatedAt),
		UpdatedAt: FormatTS(book.UpdatedAt),
		Title:     book.Title,
		Author:    book.Author,
		Edition:   book.Edition,
	}
}

// PresentBooks presents books
func PresentBooks(books []database.Book) []Book {
	ret := []Book{}

	for _, book := range books {
		p := PresentBook(book)
		ret = append(ret, p)
	}

	return ret
}

// BookAvailability is a search result
type BookAvailability struct {
	Book
	Available     bool    `json:"available"`
	AvailableFrom *string `json:"available_from,omitempty"`
}

// PresentBookAvailabilities presents search results
func PresentBookAvailabilities(results []app.BookAvailability) []BookAvailability {
	ret := []BookAvailability{}

	for _, r := range results {
		item := BookAvailability{
			Book:      PresentBook(r.Book),
			Available: r.Available,
		}
		if r.AvailableFrom != nil {
			d := FormatDate(*r.AvailableFrom)
			item.AvailableFrom = &d
		}

		ret = append(ret, item)
	}

	return ret
}
