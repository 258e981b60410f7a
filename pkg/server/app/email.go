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
	"net/url"
	"strings"

	"github.com/bookclub/bookclub/pkg/server/database"
	"github.com/bookclub/bookclub/pkg/server/helpers"
	"github.com/bookclub/bookclub/pkg/server/mailer"
	"github.com/pkg/errors"
)

// GetSenderEmail returns the noreply sender address for the domain of the base url
func GetSenderEmail(baseURL string) (string, error) {
	domain, err := getDomainFromURL(baseURL)
	if err != nil {
		return "", errors.Wrap(err, "parsing base url")
	}

	return fmt.Sprintf("noreply@%s", domain), nil
}

func getDomainFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrap(err, "parsing url")
	}

	host := u.Hostname()
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host, nil
	}
	domain := parts[len(parts)-2] + "." + parts[len(parts)-1]

	return domain, nil
}

// confirmationURL returns the link a new member follows to confirm the email
func (a *App) confirmationURL(tokenValue string) string {
	q := url.Values{}
	q.Set("token", tokenValue)

	return strings.TrimSuffix(a.BaseURL, "/") + helpers.GetPath("/api/v1/register/confirm", &q)
}

// SendConfirmationEmail sends the email confirmation link to a new member
func (a *App) SendConfirmationEmail(user database.User, tokenValue string) error {
	from, err := GetSenderEmail(a.BaseURL)
	if err != nil {
		return errors.Wrap(err, "getting the sender email")
	}

	data := mailer.ConfirmationTmplData{
		FirstName:  user.FirstName,
		ConfirmURL: a.confirmationURL(tokenValue),
		ExpiresIn:  fmt.Sprintf("%d minutes", int(ConfirmationTokenTTL.Minutes())),
	}

	if err := a.EmailBackend.SendEmail(mailer.EmailTypeConfirmation, from, []string{user.Email}, data); err != nil {
		return errors.Wrapf(err, "sending confirmation email for %s", user.Email)
	}

	return nil
}

// SendWelcomeEmail sends welcome email
func (a *App) SendWelcomeEmail(user database.User) error {
	from, err := GetSenderEmail(a.BaseURL)
	if err != nil {
		return errors.Wrap(err, "getting the sender email")
	}

	data := mailer.WelcomeTmplData{
		FirstName: user.FirstName,
		Username:  user.Username,
		BaseURL:   a.BaseURL,
	}

	if err := a.EmailBackend.SendEmail(mailer.EmailTypeWelcome, from, []string{user.Email}, data); err != nil {
		return errors.Wrapf(err, "sending welcome email for %s", user.Email)
	}

	return nil
}
