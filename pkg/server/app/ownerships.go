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

	"github.com/bookclub/bookclub/pkg/server/database"
	"github.com/bookclub/bookclub/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BookParams describes the copy of a book a user adds to the registry
type BookParams struct {
	Title   string
	Author  string
	Edition string
}

func (p BookParams) normalize() BookParams {
	return BookParams{
		Title:   strings.TrimSpace(p.Title),
		Author:  strings.TrimSpace(p.Author),
		Edition: strings.TrimSpace(p.Edition),
	}
}

func (p BookParams) complete() bool {
	return p.Title != "" && p.Author != "" && p.Edition != ""
}

// OwnershipRemoval is the outcome of removing an ownership
type OwnershipRemoval struct {
	BookID int64
	UserID int64
	// BookDeleted is true if the removed ownership was the last one of the book
	BookDeleted bool
}

func findBook(db *gorm.DB, bookID int64) (database.Book, error) {
	var book database.Book
	err := db.Where("id = ?", bookID).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return book, ErrBookNotFound
	} else if err != nil {
		return book, errors.Wrap(err, "finding book")
	}

	return book, nil
}

func findUser(db *gorm.DB, userID int64) (database.User, error) {
	var user database.User
	err := db.Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return user, ErrUserNotFound
	} else if err != nil {
		return user, errors.Wrap(err, "finding user")
	}

	return user, nil
}

// exists reports whether the query matches at least one row of the model
func exists(db *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := db.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return false, errors.Wrap(err, "counting rows")
	}

	return count > 0, nil
}

func isOwnedBy(db *gorm.DB, bookID, userID int64) (bool, error) {
	ok, err := exists(db, &database.Ownership{}, "book_id = ? AND user_id = ?", bookID, userID)
	if err != nil {
		return false, errors.Wrap(err, "checking ownership")
	}

	return ok, nil
}

// findOrCreateBook returns the book with the given content, inserting it if
// no owner has added it yet
func findOrCreateBook(tx *gorm.DB, p BookParams) (database.Book, error) {
	var book database.Book
	err := tx.Where("title = ? AND author = ? AND edition = ?", p.Title, p.Author, p.Edition).First(&book).Error
	if err == nil {
		return book, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return book, errors.Wrap(err, "finding book by content")
	}

	book = database.Book{
		Title:   p.Title,
		Author:  p.Author,
		Edition: p.Edition,
	}
	if err := tx.Create(&book).Error; err != nil {
		return book, errors.Wrap(err, "inserting book")
	}

	return book, nil
}

// AddOwnership records that the user owns a copy of the described book. An
// existing book with the same title, author and edition is shared.
func (a *App) AddOwnership(userID int64, params BookParams) (database.Ownership, error) {
	p := params.normalize()
	if !p.complete() {
		return database.Ownership{}, ErrIncompleteBookData
	}

	var ownership database.Ownership
	err := a.transact(func(tx *gorm.DB) error {
		user, err := findUser(tx, userID)
		if err != nil {
			return err
		}

		book, err := findOrCreateBook(tx, p)
		if err != nil {
			if database.IsUniqueViolation(err) {
				return ErrDuplicateOwnership
			}
			return err
		}

		owned, err := isOwnedBy(tx, book.ID, user.ID)
		if err != nil {
			return err
		}
		if owned {
			return ErrDuplicateOwnership
		}

		ownership = database.Ownership{
			BookID: book.ID,
			UserID: user.ID,
		}
		if err := tx.Omit(clause.Associations).Create(&ownership).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrDuplicateOwnership
			}
			return errors.Wrap(err, "inserting ownership")
		}

		ownership.Book = book
		ownership.User = user

		return nil
	})
	if err != nil {
		return database.Ownership{}, err
	}

	log.WithFields(log.Fields{
		"book_id": ownership.BookID,
		"user_id": ownership.UserID,
	}).Info("Ownership added.")

	return ownership, nil
}

// removeOwnershipTx deletes the ownership of the book by the user together
// with the loans and waitlist entries of that copy. The book is deleted when
// no other owner remains. It returns whether the book was deleted.
func removeOwnershipTx(tx *gorm.DB, bookID, userID int64) (bool, error) {
	if err := tx.Where("book_id = ? AND owner_id = ?", bookID, userID).Delete(&database.WaitlistEntry{}).Error; err != nil {
		return false, errors.Wrap(err, "deleting waitlist entries of the copy")
	}
	if err := tx.Where("book_id = ? AND owner_id = ?", bookID, userID).Delete(&database.Loan{}).Error; err != nil {
		return false, errors.Wrap(err, "deleting loans of the copy")
	}
	if err := tx.Where("book_id = ? AND user_id = ?", bookID, userID).Delete(&database.Ownership{}).Error; err != nil {
		return false, errors.Wrap(err, "deleting ownership")
	}

	var remaining int64
	if err := tx.Model(&database.Ownership{}).Where("book_id = ?", bookID).Count(&remaining).Error; err != nil {
		return false, errors.Wrap(err, "counting remaining owners")
	}
	if remaining > 0 {
		return false, nil
	}

	if err := tx.Where("id = ?", bookID).Delete(&database.Book{}).Error; err != nil {
		return false, errors.Wrap(err, "deleting orphaned book")
	}

	return true, nil
}

// RemoveOwnership removes the user's copy of the book from the registry. The
// copy's loans and waitlist entries go with it and the book itself is
// deleted once its last owner is removed.
func (a *App) RemoveOwnership(bookID, userID int64) (OwnershipRemoval, error) {
	ret := OwnershipRemoval{BookID: bookID, UserID: userID}

	err := a.transact(func(tx *gorm.DB) error {
		if _, err := findBook(tx, bookID); err != nil {
			return err
		}

		owned, err := isOwnedBy(tx, bookID, userID)
		if err != nil {
			return err
		}
		if !owned {
			return ErrOwnershipNotFound
		}

		deleted, err := removeOwnershipTx(tx, bookID, userID)
		if err != nil {
			return err
		}
		ret.BookDeleted = deleted

		return nil
	})
	if err != nil {
		return OwnershipRemoval{}, err
	}

	log.WithFields(log.Fields{
		"book_id":      bookID,
		"user_id":      userID,
		"book_deleted": ret.BookDeleted,
	}).Info("Ownership removed.")

	return ret, nil
}

// IsOwnedBy reports whether the user owns a copy of the book
func (a *App) IsOwnedBy(bookID, userID int64) (bool, error) {
	return isOwnedBy(a.DB, bookID, userID)
}

// OwnersOf returns the users owning a copy of the book
func (a *App) OwnersOf(bookID int64) ([]database.User, error) {
	if _, err := findBook(a.DB, bookID); err != nil {
		return nil, err
	}

	var users []database.User
	if err := a.DB.
		Joins("JOIN ownerships ON ownerships.user_id = users.id").
		Where("ownerships.book_id = ?", bookID).
		Order("users.id ASC").
		Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "finding owners")
	}

	return users, nil
}

// BooksOwnedBy returns the books of which the user owns a copy
func (a *App) BooksOwnedBy(userID int64) ([]database.Book, error) {
	if _, err := findUser(a.DB, userID); err != nil {
		return nil, err
	}

	var books []database.Book
	if err := a.DB.
		Joins("JOIN ownerships ON ownerships.book_id = books.id").
		Where("ownerships.user_id = ?", userID).
		Order("books.id ASC").
		Find(&books).Error; err != nil {
		return nil, errors.Wrap(err, "finding owned books")
	}

	return books, nil
}

// ListOwnerships returns every ownership with its book and user
func (a *App) ListOwnerships() ([]database.Ownership, error) {
	var ownerships []database.Ownership
	if err := a.DB.
		Preload("Book").
		Preload("User").
		Order("book_id ASC, user_id ASC").
		Find(&ownerships).Error; err != nil {
		return nil, errors.Wrap(err, "finding ownerships")
	}

	return ownerships, nil
}
