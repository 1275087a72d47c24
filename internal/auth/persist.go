// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

package auth

import (
	"nsctl/cli/internal/session"

	"github.com/sirupsen/logrus"
)

// Persist saves a snapshot of st to store after every change and returns
// a function that stops doing so. Save failures are logged, not returned:
// the in-memory state stays authoritative for the running command.
func Persist(st *session.State, store SecretStore, log logrus.FieldLogger) (cancel func()) {
	return st.Subscribe(func(c session.Change) {
		if err := Save(store, c.New); err != nil {
			log.WithError(err).WithField("field", c.Field.String()).Warn("could not persist session state")
			return
		}
		log.WithFields(logrus.Fields{
			"field":     c.Field.String(),
			"username":  c.New.Username,
			"logged_in": c.New.LoggedIn,
		}).Debug("session state persisted")
	})
}
