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

package cmd

import (
	"fmt"

	"github.com/bookclub/bookclub/pkg/prompt"
	"github.com/bookclub/bookclub/pkg/server/app"
	"github.com/bookclub/bookclub/pkg/server/database"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// lookupFlags identify an existing user by username or email
type lookupFlags struct {
	username string
	email    string
}

func (f *lookupFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.username, "username", "", "Username of the user")
	cmd.Flags().StringVar(&f.email, "email", "", "Email address of the user")
}

func (f *lookupFlags) find(a *app.App) (database.User, error) {
	user, err := a.GetUserByUsernameOrEmail(f.username, f.email)
	if err != nil {
		return user, errors.Wrap(err, "finding user")
	}

	return user, nil
}

func newUserCmd() *cobra.Command {
	var db dbFlags

	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage users",
	}
	db.register(cmd)

	cmd.AddCommand(newUserCreateCmd(&db))
	cmd.AddCommand(newUserRemoveCmd(&db))
	cmd.AddCommand(newUserResetPasswordCmd(&db))

	return cmd
}

func newUserCreateCmd(db *dbFlags) *cobra.Command {
	var p app.UserParams

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := setupApp(db)
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := a.CreateUser(p)
			if err != nil {
				return errors.Wrap(err, "creating user")
			}

			w := cmd.OutOrStdout()
			successf(w, "User created")
			infof(w, "Username: %s", user.Username)
			infof(w, "Email: %s", user.Email)
			infof(w, "Role: %s", user.Role)

			return nil
		},
	}

	cmd.Flags().StringVar(&p.Username, "username", "", "Username (required)")
	cmd.Flags().StringVar(&p.Email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&p.FirstName, "firstName", "", "First name (required)")
	cmd.Flags().StringVar(&p.LastName, "lastName", "", "Last name (required)")
	cmd.Flags().StringVar(&p.Password, "password", "", "Password (required)")
	cmd.Flags().BoolVar(&p.Admin, "admin", false, "Grant the admin role")
	for _, name := range []string{"username", "email", "firstName", "lastName", "password"} {
		cmd.MarkFlagRequired(name)
	}

	return cmd
}

func newUserRemoveCmd(db *dbFlags) *cobra.Command {
	var lookup lookupFlags
	var yes bool

	cmd := &cobra.Command{
		Use:   "remove",
		Short: "Remove a user with their copies, loans and waitlist entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := setupApp(db)
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := lookup.find(a)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if !yes {
				ok, err := prompt.Confirm(cmd.InOrStdin(), w, fmt.Sprintf("Remove user %s <%s>?", user.Username, user.Email), false)
				if err != nil {
					return errors.Wrap(err, "getting confirmation")
				}
				if !ok {
					fmt.Fprintln(w, "Aborted by user")
					return nil
				}
			}

			if err := a.DeleteUser(user.ID); err != nil {
				return errors.Wrap(err, "removing user")
			}

			successf(w, "User removed")
			infof(w, "Username: %s", user.Username)

			return nil
		},
	}

	lookup.register(cmd)
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")

	return cmd
}

func newUserResetPasswordCmd(db *dbFlags) *cobra.Command {
	var lookup lookupFlags
	var password string

	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Reset the password of a user and sign them out everywhere",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, cleanup, err := setupApp(db)
			if err != nil {
				return err
			}
			defer cleanup()

			user, err := lookup.find(a)
			if err != nil {
				return err
			}

			if err := a.UpdateUserPassword(user.ID, password); err != nil {
				return errors.Wrap(err, "updating password")
			}

			successf(cmd.OutOrStdout(), "Password reset")
			infof(cmd.OutOrStdout(), "Username: %s", user.Username)

			return nil
		},
	}

	lookup.register(cmd)
	cmd.Flags().StringVar(&password, "password", "", "New password (required)")
	cmd.MarkFlagRequired("password")

	return cmd
}
