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

// User is a result of PresentUser
type User struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Role      string    `json:"role"`
	Enabled   bool      `json:"enabled"`
}

// PresentUser presents a user without the credentials
func PresentUser(user database.User) User {
	return User{
		ID:        user.ID,
		CreatedAt: FormatTS(user.CreatedAt),
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		Enabled:   user.Enabled,
	}
}

// PresentUsers presents users
func PresentUsers(users []database.User) []User {
	ret := []User{}

	for _, user := range users {
		ret = append(ret, PresentUser(user))
	}

	return ret
}

// UserRef is a user nested in other results
type UserRef struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

func presentUserRef(user database.User) UserRef {
	return UserRef{
		ID:       user.ID,
		Username: user.Username,
	}
}
