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
	"fmt"
	"time"

	"github.com/bookclub/bookclub/pkg/clock"
	"github.com/bookclub/bookclub/pkg/server/database"
	"github.com/bookclub/bookclub/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	// MinLoanWeeks is the shortest rental period
	MinLoanWeeks = 1
	// MaxLoanWeeks is the longest rental period a borrow may ask for
	MaxLoanWeeks = 4
	// MaxRentalWeeks caps the whole rental, extensions included, counted
	// from the borrow date
	MaxRentalWeeks = 5

	week = 7 * clock.Day
)

// wholeWeeksBetween returns the number of complete weeks from start to end
func wholeWeeksBetween(start, end time.Time) int {
	days := int(clock.Date(end).Sub(clock.Date(start)) / clock.Day)

	return days / 7
}

// canExtend reports whether moving the return date one week later keeps the
// rental within MaxRentalWeeks of the borrow date
func canExtend(loan database.Loan) bool {
	candidate := loan.ReturnDate.Add(week)

	return wholeWeeksBetween(loan.BorrowDate, candidate) <= MaxRentalWeeks
}

func loanExists(db *gorm.DB, query string, args ...interface{}) (bool, error) {
	ok, err := exists(db, &database.Loan{}, query, args...)
	if err != nil {
		return false, errors.Wrap(err, "checking loan")
	}

	return ok, nil
}

// Borrow lends the owner's copy of the book to the borrower for the given
// number of weeks starting today
func (a *App) Borrow(bookID, borrowerID, ownerID int64, weeks int) (database.Loan, error) {
	if weeks < MinLoanWeeks || weeks > MaxLoanWeeks {
		return database.Loan{}, ErrInvalidWeeks
	}

	var loan database.Loan
	err := a.transact(func(tx *gorm.DB) error {
		book, err := findBook(tx, bookID)
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidLoanParams
		} else if err != nil {
			return err
		}
		borrower, err := findUser(tx, borrowerID)
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidLoanParams
		} else if err != nil {
			return err
		}
		owner, err := findUser(tx, ownerID)
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidLoanParams
		} else if err != nil {
			return err
		}

		ownsIt, err := isOwnedBy(tx, bookID, borrowerID)
		if err != nil {
			return err
		}
		if ownsIt {
			return ErrBorrowOwnBook
		}

		ownerOwnsIt, err := isOwnedBy(tx, bookID, ownerID)
		if err != nil {
			return err
		}
		if !ownerOwnsIt {
			return ErrNotOwner
		}

		lent, err := loanExists(tx, "book_id = ? AND owner_id = ?", bookID, ownerID)
		if err != nil {
			return err
		}
		if lent {
			return ErrAlreadyBorrowed
		}

		renting, err := loanExists(tx, "book_id = ? AND borrower_id = ?", bookID, borrowerID)
		if err != nil {
			return err
		}
		if renting {
			return ErrAlreadyRenting
		}

		today := clock.Today(a.Clock)
		loan = database.Loan{
			BookID:     bookID,
			BorrowerID: borrowerID,
			OwnerID:    ownerID,
			BorrowDate: today,
			ReturnDate: today.AddDate(0, 0, 7*weeks),
		}
		if err := tx.Omit(clause.Associations).Create(&loan).Error; err != nil {
			// the unique index on (book_id, owner_id) settles concurrent borrows
			if database.IsUniqueViolation(err) {
				return ErrAlreadyBorrowed
			}
			return errors.Wrap(err, "inserting loan")
		}

		loan.Book = book
		loan.Borrower = borrower
		loan.Owner = owner

		return nil
	})
	if err != nil {
		return database.Loan{}, err
	}

	log.WithFields(log.Fields{
		"book_id":     loan.BookID,
		"borrower_id": loan.BorrowerID,
		"owner_id":    loan.OwnerID,
		"return_date": loan.ReturnDate.Format("2006-01-02"),
	}).Info("Book borrowed.")

	return loan, nil
}

// BorrowConfirmation returns the message confirming a new loan
func BorrowConfirmation(loan database.Loan) string {
	weeks := wholeWeeksBetween(loan.BorrowDate, loan.ReturnDate)

	return fmt.Sprintf("Book %q was borrowed by %s from %s for %d weeks, until %s",
		loan.Book.Title, loan.Borrower.Username, loan.Owner.Username, weeks, loan.ReturnDate.Format("2006-01-02"))
}

// Extend moves the return date of the borrower's loan of the book one week
// later, as long as the whole rental stays within MaxRentalWeeks
func (a *App) Extend(bookID, borrowerID int64) (database.Loan, error) {
	var loan database.Loan
	err := a.transact(func(tx *gorm.DB) error {
		err := tx.Where("book_id = ? AND borrower_id = ?", bookID, borrowerID).First(&loan).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLoanNotFound
		} else if err != nil {
			return errors.Wrap(err, "finding loan")
		}

		if !canExtend(loan) {
			return ErrExtensionLimit
		}

		previous := loan.ReturnDate
		extended := previous.Add(week)

		res := tx.Model(&database.Loan{}).
			Where("book_id = ? AND borrower_id = ? AND return_date = ?", bookID, borrowerID, previous).
			Update("return_date", extended)
		if res.Error != nil {
			return errors.Wrap(res.Error, "extending loan")
		}
		if res.RowsAffected != 1 {
			return ErrLoanChanged
		}

		loan.ReturnDate = extended

		return nil
	})
	if err != nil {
		return database.Loan{}, err
	}

	log.WithFields(log.Fields{
		"book_id":     loan.BookID,
		"borrower_id": loan.BorrowerID,
		"return_date": loan.ReturnDate.Format("2006-01-02"),
	}).Info("Loan extended.")

	return loan, nil
}

func (a *App) findLoans(query string, args ...interface{}) ([]database.Loan, error) {
	conn := a.DB.Preload("Book").Preload("Borrower").Preload("Owner")
	if query != "" {
		conn = conn.Where(query, args...)
	}

	var loans []database.Loan
	if err := conn.Order("book_id ASC, borrower_id ASC").Find(&loans).Error; err != nil {
		return nil, errors.Wrap(err, "finding loans")
	}

	return loans, nil
}

// ListLoans returns every active loan
func (a *App) ListLoans() ([]database.Loan, error) {
	return a.findLoans("")
}

// LoansGivenBy returns the loans of the copies owned by the user
func (a *App) LoansGivenBy(ownerID int64) ([]database.Loan, error) {
	return a.findLoans("owner_id = ?", ownerID)
}

// LoansReceivedBy returns the loans in which the user is the borrower
func (a *App) LoansReceivedBy(borrowerID int64) ([]database.Loan, error) {
	return a.findLoans("borrower_id = ?", borrowerID)
}

// GetLoanByBookAndOwner returns the loan of the owner's copy of the book
func (a *App) GetLoanByBookAndOwner(bookID, ownerID int64) (database.Loan, error) {
	var loan database.Loan
	err := a.DB.Preload("Book").Preload("Borrower").Preload("Owner").
		Where("book_id = ? AND owner_id = ?", bookID, ownerID).
		First(&loan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return loan, notFound("The book is not lent by this owner")
	} else if err != nil {
		return loan, errors.Wrap(err, "finding loan")
	}

	return loan, nil
}
