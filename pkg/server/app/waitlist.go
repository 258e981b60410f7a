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
	"github.com/bookclub/bookclub/pkg/server/database"
	"github.com/bookclub/bookclub/pkg/server/log"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JoinWaitlist puts the user on the waiting list for the owner's copy of the
// book. Only a copy that is currently on loan can be waited for.
func (a *App) JoinWaitlist(bookID, ownerID, userID int64) (database.WaitlistEntry, error) {
	var entry database.WaitlistEntry
	err := a.transact(func(tx *gorm.DB) error {
		copyExists, err := isOwnedBy(tx, bookID, ownerID)
		if err != nil {
			return err
		}
		userExists, err := exists(tx, &database.User{}, "id = ?", userID)
		if err != nil {
			return errors.Wrap(err, "checking user")
		}
		if !copyExists || !userExists {
			return ErrWaitlistInvalidData
		}

		lent, err := loanExists(tx, "book_id = ? AND owner_id = ?", bookID, ownerID)
		if err != nil {
			return err
		}
		if !lent {
			return ErrWaitlistNotRented
		}

		ownsIt, err := isOwnedBy(tx, bookID, userID)
		if err != nil {
			return err
		}
		if ownsIt {
			return ErrWaitlistOwnBook
		}

		renting, err := loanExists(tx, "book_id = ? AND borrower_id = ?", bookID, userID)
		if err != nil {
			return err
		}
		if renting {
			return ErrWaitlistRenting
		}

		waiting, err := exists(tx, &database.WaitlistEntry{}, "book_id = ? AND user_id = ?", bookID, userID)
		if err != nil {
			return errors.Wrap(err, "checking waitlist")
		}
		if waiting {
			return ErrWaitlistDuplicate
		}

		entry = database.WaitlistEntry{
			BookID:  bookID,
			OwnerID: ownerID,
			UserID:  userID,
		}
		if err := tx.Omit(clause.Associations).Create(&entry).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return ErrWaitlistDuplicate
			}
			return errors.Wrap(err, "inserting waitlist entry")
		}

		return nil
	})
	if err != nil {
		return database.WaitlistEntry{}, err
	}

	log.WithFields(log.Fields{
		"book_id":  entry.BookID,
		"owner_id": entry.OwnerID,
		"user_id":  entry.UserID,
	}).Info("Joined waitlist.")

	return entry, nil
}

func (a *App) findWaitlist(query string, args ...interface{}) ([]database.WaitlistEntry, error) {
	conn := a.DB.Preload("Book").Preload("Owner").Preload("User")
	if query != "" {
		conn = conn.Where(query, args...)
	}

	var entries []database.WaitlistEntry
	if err := conn.Order("created_at ASC, id ASC").Find(&entries).Error; err != nil {
		return nil, errors.Wrap(err, "finding waitlist entries")
	}

	return entries, nil
}

// ListWaitlist returns every waitlist entry in queue order
func (a *App) ListWaitlist() ([]database.WaitlistEntry, error) {
	return a.findWaitlist("")
}

// WaitlistForBook returns the waitlist entries for any copy of the book in
// queue order
func (a *App) WaitlistForBook(bookID int64) ([]database.WaitlistEntry, error) {
	return a.findWaitlist("book_id = ?", bookID)
}
