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

package token

import (
	"testing"
	"time"

	"github.com/bookclub/bookclub/pkg/assert"
	"github.com/bookclub/bookclub/pkg/server/database"
	"github.com/bookclub/bookclub/pkg/server/testutils"
	"github.com/pkg/errors"
)

var now = time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

func TestCreate(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	u := testutils.SetupUserData(db, "alice", "password123")

	tok, err := Create(db, u.ID, database.TokenTypeEmailConfirmation, now.Add(15*time.Minute))
	if err != nil {
		t.Fatal(errors.Wrap(err, "performing"))
	}

	var count int64
	testutils.MustExec(t, db.Model(&database.Token{}).Count(&count), "counting token")
	assert.Equalf(t, count, int64(1), "count mismatch")

	var tokenRecord database.Token
	testutils.MustExec(t, db.First(&tokenRecord), "finding token")
	assert.Equalf(t, tokenRecord.UserID, tok.UserID, "UserID mismatch")
	assert.Equalf(t, tokenRecord.Value, tok.Value, "Value mismatch")
	assert.Equalf(t, tokenRecord.Type, tok.Type, "Type mismatch")
	assert.Equal(t, tokenRecord.ExpiresAt.Equal(now.Add(15*time.Minute)), true, "ExpiresAt mismatch")
}

func TestFind(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	u := testutils.SetupUserData(db, "alice", "password123")

	tok, err := Create(db, u.ID, database.TokenTypeEmailConfirmation, now.Add(15*time.Minute))
	if err != nil {
		t.Fatal(errors.Wrap(err, "preparing token"))
	}

	t.Run("valid", func(t *testing.T) {
		got, err := Find(db, tok.Value, database.TokenTypeEmailConfirmation, now)
		if err != nil {
			t.Fatal(errors.Wrap(err, "finding"))
		}
		assert.Equal(t, got.ID, tok.ID, "ID mismatch")
	})

	t.Run("wrong kind", func(t *testing.T) {
		_, err := Find(db, tok.Value, "other", now)
		assert.Equal(t, err, ErrNotFound, "error mismatch")
	})

	t.Run("unknown value", func(t *testing.T) {
		_, err := Find(db, "nope", database.TokenTypeEmailConfirmation, now)
		assert.Equal(t, err, ErrNotFound, "error mismatch")
	})

	t.Run("expired", func(t *testing.T) {
		_, err := Find(db, tok.Value, database.TokenTypeEmailConfirmation, now.Add(15*time.Minute))
		assert.Equal(t, err, ErrExpired, "error mismatch")
	})

	t.Run("used", func(t *testing.T) {
		if err := MarkUsed(db, tok, now); err != nil {
			t.Fatal(errors.Wrap(err, "marking used"))
		}

		_, err := Find(db, tok.Value, database.TokenTypeEmailConfirmation, now)
		assert.Equal(t, err, ErrNotFound, "error mismatch")
	})
}

func TestDeleteUserTokens(t *testing.T) {
	db := testutils.InitMemoryDB(t)
	alice := testutils.SetupUserData(db, "alice", "password123")
	bob := testutils.SetupUserData(db, "bob", "password123")

	for _, u := range []database.User{alice, alice, bob} {
		if _, err := Create(db, u.ID, database.TokenTypeEmailConfirmation, now); err != nil {
			t.Fatal(errors.Wrap(err, "preparing token"))
		}
	}

	if err := DeleteUserTokens(db, alice.ID); err != nil {
		t.Fatal(errors.Wrap(err, "deleting"))
	}

	var aliceCount, bobCount int64
	testutils.MustExec(t, db.Model(&database.Token{}).Where("user_id = ?", alice.ID).Count(&aliceCount), "counting alice tokens")
	testutils.MustExec(t, db.Model(&database.Token{}).Where("user_id = ?", bob.ID).Count(&bobCount), "counting bob tokens")
	assert.Equal(t, aliceCount, int64(0), "alice token count mismatch")
	assert.Equal(t, bobCount, int64(1), "bob token count mismatch")
}
