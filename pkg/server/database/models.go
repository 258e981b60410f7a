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

package database

import (
	"time"
)

// Model is the base model definition
type Model struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// User is a model for a member of the club
type User struct {
	Model
	Username    string     `json:"username" gorm:"uniqueIndex;not null"`
	Email       string     `json:"email" gorm:"uniqueIndex;not null"`
	FirstName   string     `json:"first_name" gorm:"not null"`
	LastName    string     `json:"last_name" gorm:"not null"`
	Password    string     `json:"-" gorm:"not null"`
	Role        string     `json:"role" gorm:"not null;default:member"`
	Enabled     bool       `json:"enabled" gorm:"default:false"`
	LastLoginAt *time.Time `json:"-"`
}

// Book is a model for a book. A row is shared by every owner of a copy with
// the same title, author and edition.
type Book struct {
	Model
	Title   string `json:"title" gorm:"not null;uniqueIndex:idx_books_content,priority:1"`
	Author  string `json:"author" gorm:"not null;uniqueIndex:idx_books_content,priority:2"`
	Edition string `json:"edition" gorm:"not null;uniqueIndex:idx_books_content,priority:3"`
}

// Ownership asserts that a user owns a copy of a book
type Ownership struct {
	BookID    int64     `json:"book_id" gorm:"primaryKey;autoIncrement:false"`
	UserID    int64     `json:"user_id" gorm:"primaryKey;autoIncrement:false"`
	Book      Book      `json:"book"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// Loan is an active rental of an owner's copy of a book
type Loan struct {
	BookID     int64     `json:"book_id" gorm:"primaryKey;autoIncrement:false;uniqueIndex:idx_loans_book_owner,priority:1"`
	BorrowerID int64     `json:"borrower_id" gorm:"primaryKey;autoIncrement:false"`
	OwnerID    int64     `json:"owner_id" gorm:"not null;uniqueIndex:idx_loans_book_owner,priority:2;check:borrower_id <> owner_id"`
	Book       Book      `json:"book"`
	Borrower   User      `json:"borrower" gorm:"foreignKey:BorrowerID"`
	Owner      User      `json:"owner" gorm:"foreignKey:OwnerID"`
	BorrowDate time.Time `json:"borrow_date" gorm:"not null"`
	ReturnDate time.Time `json:"return_date" gorm:"not null"`
}

// WaitlistEntry records that a user wants an owner's copy of a book once
// its current loan ends
type WaitlistEntry struct {
	Model
	BookID  int64 `json:"book_id" gorm:"not null;uniqueIndex:idx_waitlist_book_user,priority:1"`
	OwnerID int64 `json:"owner_id" gorm:"not null"`
	UserID  int64 `json:"user_id" gorm:"not null;uniqueIndex:idx_waitlist_book_user,priority:2"`
	Book    Book  `json:"book"`
	Owner   User  `json:"owner" gorm:"foreignKey:OwnerID"`
	User    User  `json:"user"`
}

// Token is a model for a token
type Token struct {
	Model
	UserID    int64  `gorm:"index"`
	Value     string `gorm:"index"`
	Type      string
	UsedAt    *time.Time
	ExpiresAt time.Time
}

// Session represents a user session
type Session struct {
	Model
	UserID     int64  `gorm:"index"`
	Key        string `gorm:"index"`
	LastUsedAt time.Time
	ExpiresAt  time.Time
}
