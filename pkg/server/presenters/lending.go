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

	"github.com/bookclub/bookclub/pkg/server/database"
)

// Ownership is a result of PresentOwnership
type Ownership struct {
	Book      Book      `json:"book"`
	User      UserRef   `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// PresentOwnership presents an ownership with its book and user preloaded
func PresentOwnership(o database.Ownership) Ownership {
	return Ownership{
		Book:      PresentBook(o.Book),
		User:      presentUserRef(o.User),
		CreatedAt: FormatTS(o.CreatedAt),
	}
}

// PresentOwnerships presents ownerships
func PresentOwnerships(ownerships []database.Ownership) []Ownership {
	ret := []Ownership{}

	for _, o := range ownerships {
		ret = append(ret, PresentOwnership(o))
	}

	return ret
}

// Loan is a result of PresentLoan
type Loan struct {
	Book       Book    `json:"book"`
	Borrower   UserRef `json:"borrower"`
	Owner      UserRef `json:"owner"`
	BorrowDate string  `json:"borrow_date"`
	ReturnDate string  `json:"return_date"`
}

// PresentLoan presents a loan with its book, borrower and owner preloaded
func PresentLoan(l database.Loan) Loan {
	return Loan{
		Book:       PresentBook(l.Book),
		Borrower:   presentUserRef(l.Borrower),
		Owner:      presentUserRef(l.Owner),
		BorrowDate: FormatDate(l.BorrowDate),
		ReturnDate: FormatDate(l.ReturnDate),
	}
}

// PresentLoans presents loans
func PresentLoans(loans []database.Loan) []Loan {
	ret := []Loan{}

	for _, l := range loans {
		ret = append(ret, PresentLoan(l))
	}

	return ret
}

// WaitlistEntry is a result of PresentWaitlistEntry
type WaitlistEntry struct {
	ID        int64     `json:"id"`
	Book      Book      `json:"book"`
	Owner     UserRef   `json:"owner"`
	User      UserRef   `json:"user"`
	CreatedAt time.Time `json:"created_at"`
}

// PresentWaitlistEntry presents a waitlist entry with its relations preloaded
func PresentWaitlistEntry(e database.WaitlistEntry) WaitlistEntry {
	return WaitlistEntry{
		ID:        e.ID,
		Book:      PresentBook(e.Book),
		Owner:     presentUserRef(e.Owner),
		User:      presentUserRef(e.User),
		CreatedAt: FormatTS(e.CreatedAt),
	}
}

// PresentWaitlist presents waitlist entries in queue order
func PresentWaitlist(entries []database.WaitlistEntry) []WaitlistEntry {
	ret := []WaitlistEntry{}

	for _, e := range entries {
		ret = append(ret, PresentWaitlistEntry(e))
	}

	return ret
}
