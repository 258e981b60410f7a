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
	"github.com/pkg/errors"
)

// Kind classifies a domain failure
type Kind int

const (
	// KindInternal is a failure that is not caused by the caller
	KindInternal Kind = iota
	// KindNotFound means a referenced entity does not exist
	KindNotFound
	// KindValidation means the supplied arguments are structurally invalid
	KindValidation
	// KindBadRequest means a business rule is violated
	KindBadRequest
	// KindConflict means the operation would duplicate an existing record
	KindConflict
	// KindForbidden means the caller may not act on the target
	KindForbidden
	// KindUnauthorized means the caller is not authenticated
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation failed"
	case KindBadRequest:
		return "bad request"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal error"
	}
}

// Error is a domain failure carrying a human readable message
type Error struct {
	Kind Kind
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}

	return e.Msg
}

// Is reports whether target is a kind sentinel of the same kind or the very
// same error. Sentinels are errors without a message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t.Msg == "" {
		return e.Kind == t.Kind
	}

	return e.Kind == t.Kind && e.Msg == t.Msg
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func notFound(msg string) *Error {
	return newError(KindNotFound, msg)
}

func badRequest(msg string) *Error {
	return newError(KindBadRequest, msg)
}

// KindOf returns the kind of the domain error in the chain of err, or
// KindInternal if there is none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}

	return KindInternal
}

var (
	// ErrNotFound matches every not found error
	ErrNotFound = &Error{Kind: KindNotFound}
	// ErrValidation matches every validation error
	ErrValidation = &Error{Kind: KindValidation}
	// ErrBadRequest matches every business rule violation
	ErrBadRequest = &Error{Kind: KindBadRequest}
	// ErrConflict matches every conflict error
	ErrConflict = &Error{Kind: KindConflict}
	// ErrForbidden matches every forbidden error
	ErrForbidden = &Error{Kind: KindForbidden}
	// ErrUnauthorized matches every unauthorized error
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
)

var (
	// ErrIncompleteBookData is returned when a book lacks a title, author or edition
	ErrIncompleteBookData = newError(KindValidation, "Book has incomplete data")
	// ErrInvalidWeeks is returned when a rental period is outside of one to four weeks
	ErrInvalidWeeks = newError(KindValidation, "The book can be rented for 1 to 4 weeks")
	// ErrDuplicateOwnership is returned when a user adds a book they already own
	ErrDuplicateOwnership = newError(KindConflict, "The user already owns this book")
	// ErrBookNotFound is returned when no book has the given id
	ErrBookNotFound = notFound("Book not found")
	// ErrUserNotFound is returned when no user has the given id
	ErrUserNotFound = notFound("User not found")
	// ErrLoanNotFound is returned when there is no matching loan
	ErrLoanNotFound = notFound("The book is not borrowed by this user")
	// ErrOwnershipNotFound is returned when the user does not own the book
	ErrOwnershipNotFound = badRequest("The user does not own this book")
	// ErrInvalidLoanParams is returned when the book, borrower or owner of a loan does not exist
	ErrInvalidLoanParams = notFound("Invalid params, the book or one of the users does not exist")
	// ErrBorrowOwnBook is returned when a user tries to rent a book they own
	ErrBorrowOwnBook = badRequest("The user cannot rent a book they own")
	// ErrNotOwner is returned when the claimed owner does not own the book
	ErrNotOwner = badRequest("The book does not belong to the given owner")
	// ErrAlreadyBorrowed is returned when the owner's copy is already on loan
	ErrAlreadyBorrowed = badRequest("The book is already borrowed")
	// ErrAlreadyRenting is returned when the borrower already rents the book
	ErrAlreadyRenting = badRequest("The user is already renting this book")
	// ErrExtensionLimit is returned when an extension goes beyond five weeks of rental
	ErrExtensionLimit = badRequest("The rental period cannot be extended anymore")
	// ErrLoanChanged is returned when a loan is modified by another request during an extension
	ErrLoanChanged = newError(KindConflict, "The loan was modified by another request, try again")
	// ErrWaitlistInvalidData is returned when the copy or the user of a waitlist entry does not exist
	ErrWaitlistInvalidData = badRequest("Invalid data, some objects do not exist")
	// ErrWaitlistNotRented is returned when joining the list of a copy that is not on loan
	ErrWaitlistNotRented = badRequest("The book is not already rented")
	// ErrWaitlistOwnBook is returned when an owner joins the list for their own book
	ErrWaitlistOwnBook = badRequest("The user cannot be added to the waiting list for their own book")
	// ErrWaitlistRenting is returned when the current borrower joins the list
	ErrWaitlistRenting = badRequest("The user is already renting this book and cannot wait for it")
	// ErrWaitlistDuplicate is returned when the user is already on the list for the book
	ErrWaitlistDuplicate = badRequest("The user already added themselves to the waiting list")
	// ErrSearchTermRequired is returned when a search has neither a title nor an author
	ErrSearchTermRequired = newError(KindValidation, "Title or author is required")

	// ErrIncompleteUserData is returned when a user lacks a required field
	ErrIncompleteUserData = newError(KindValidation, "User has incomplete data")
	// ErrPasswordTooShort is returned when a password is shorter than eight characters
	ErrPasswordTooShort = newError(KindValidation, "Password should be longer than 8 characters")
	// ErrDuplicateUser is returned when the username or the email is taken
	ErrDuplicateUser = newError(KindConflict, "Username or email is already taken")
	// ErrLookupTermRequired is returned when a user lookup has neither a username nor an email
	ErrLookupTermRequired = newError(KindValidation, "Username or email is required")
	// ErrLoginInvalid is returned when the credentials do not match
	ErrLoginInvalid = newError(KindUnauthorized, "Wrong login and password combination")
	// ErrLoginRequired is returned when the request is not authenticated
	ErrLoginRequired = newError(KindUnauthorized, "Login required")
	// ErrUserDisabled is returned when the user has not confirmed the email yet
	ErrUserDisabled = newError(KindForbidden, "The account is not confirmed yet")
	// ErrInvalidToken is returned when the confirmation token is unknown or used
	ErrInvalidToken = badRequest("Token not found")
	// ErrTokenExpired is returned when the confirmation token has expired
	ErrTokenExpired = badRequest("Token expired")
	// ErrRegistrationDisabled is returned when self registration is turned off
	ErrRegistrationDisabled = newError(KindForbidden, "Registration is disabled")
)
