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
	"testing"

	"github.com/bookclub/bookclub/pkg/assert"
	"github.com/bookclub/bookclub/pkg/server/testutils"
	"github.com/pkg/errors"
)

func TestListBooks(t *testing.T) {
	a, db, _ := newTestApp(t)
	b1 := testutils.SetupBook(db, "Ion", "Rebreanu", "I")
	b2 := testutils.SetupBook(db, "Baltagul", "Sadoveanu", "I")

	books, err := a.ListBooks()
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	assert.Equalf(t, len(books), 2, "book count mismatch")
	assert.Equal(t, books[0].ID, b1.ID, "first book mismatch")
	assert.Equal(t, books[1].ID, b2.ID, "second book mismatch")
}

func TestGetBook(t *testing.T) {
	a, db, _ := newTestApp(t)
	b := testutils.SetupBook(db, "Ion", "Rebreanu", "I")

	got, err := a.GetBook(b.ID)
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}
	assert.Equal(t, got.Title, "Ion", "title mismatch")

	_, err = a.GetBook(b.ID + 1)
	assert.Equal(t, err, ErrBookNotFound, "error mismatch")
}

func TestAvailableBooks(t *testing.T) {
	a, db, _ := newTestApp(t)
	alice := testutils.SetupUserData(db, "alice", "pass1234")
	bob := testutils.SetupUserData(db, "bob", "pass1234")
	chuck := testutils.SetupUserData(db, "chuck", "pass1234")

	// two copies, one lent
	partly := testutils.SetupBook(db, "Ion", "Rebreanu", "I")
	testutils.SetupOwnership(db, partly, alice)
	testutils.SetupOwnership(db, partly, bob)
	testutils.SetupLoan(db, partly, chuck, alice, testToday, 1)

	// single copy, lent
	lent := testutils.SetupBook(db, "Baltagul", "Sadoveanu", "I")
	testutils.SetupOwnership(db, lent, alice)
	testutils.SetupLoan(db, lent, chuck, alice, testToday, 1)

	// single copy, on the shelf
	free := testutils.SetupBook(db, "Maitreyi", "Eliade", "I")
	testutils.SetupOwnership(db, free, bob)

	books, err := a.AvailableBooks()
	if err != nil {
		t.Fatal(errors.Wrap(err, "executing"))
	}

	assert.Equalf(t, len(books), 2, "book count mismatch")
	assert.Equal(t, books[0].ID, partly.ID, "first book mismatch")
	assert.Equal(t, books[1].ID, free.ID, "second book mismatch")
	assert.Equal(t, books[0].Title, "Ion", "columns should be loaded")
}

func TestSearchBooks(t *testing.T) {
	a, db, _ := newTestApp(t)
	alice := testutils.SetupUserData(db, "alice", "pass1234")
	bob := testutils.SetupUserData(db, "bob", "pass1234")
	chuck := testutils.SetupUserData(db, "chuck", "pass1234")

	ion := testutils.SetupBook(db, "Ion", "Rebreanu", "I")
	testutils.SetupOwnership(db, ion, alice)
	testutils.SetupOwnership(db, ion, bob)
	testutils.SetupLoan(db, ion, chuck, alice, testToday, 3)
	testutils.SetupLoan(db, ion, alice, bob, testToday, 1)

	padurea := testutils.SetupBook(db, "Padurea spanzuratilor", "Rebreanu", "II")
	testutils.SetupOwnership(db, padurea, bob)

	percent := testutils.SetupBook(db, "100% Cotton", "Weaver", "I")
	testutils.SetupOwnership(db, percent, bob)

	t.Run("by author, case insensitive", func(t *testing.T) {
		results, err := a.SearchBooks("", "rebreanu")
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}

		assert.Equalf(t, len(results), 2, "result count mismatch")

		assert.Equal(t, results[0].Book.ID, ion.ID, "first result mismatch")
		assert.Equal(t, results[0].Available, false, "every copy of ion is lent")
		if results[0].AvailableFrom == nil {
			t.Fatal("expected an available_from date")
		}
		assert.Equal(t, results[0].AvailableFrom.Equal(testToday.AddDate(0, 0, 7)), true, "available_from should be the earliest return date")

		assert.Equal(t, results[1].Book.ID, padurea.ID, "second result mismatch")
		assert.Equal(t, results[1].Available, true, "padurea is on the shelf")
		assert.Equal(t, results[1].AvailableFrom == nil, true, "available books have no available_from")
	})

	t.Run("by title substring", func(t *testing.T) {
		results, err := a.SearchBooks("PADUREA", "")
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}
		assert.Equalf(t, len(results), 1, "result count mismatch")
		assert.Equal(t, results[0].Book.ID, padurea.ID, "result mismatch")
	})

	t.Run("title or author", func(t *testing.T) {
		results, err := a.SearchBooks("cotton", "rebreanu")
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}
		assert.Equal(t, len(results), 3, "result count mismatch")
	})

	t.Run("wildcards are literal", func(t *testing.T) {
		results, err := a.SearchBooks("%", "")
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}
		assert.Equalf(t, len(results), 1, "result count mismatch")
		assert.Equal(t, results[0].Book.ID, percent.ID, "result mismatch")
	})

	t.Run("no match", func(t *testing.T) {
		results, err := a.SearchBooks("Dune", "")
		if err != nil {
			t.Fatal(errors.Wrap(err, "executing"))
		}
		assert.Equal(t, len(results), 0, "result count mismatch")
	})

	t.Run("no terms", func(t *testing.T) {
		_, err := a.SearchBooks(" ", "")
		assert.Equal(t, err, ErrSearchTermRequired, "error mismatch")
		assert.Equal(t, errors.Is(err, ErrValidation), true, "error kind mismatch")
	})
}
