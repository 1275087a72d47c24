// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package session holds the in-memory login state of the running CLI:
// the current username and whether the user is logged in.
//
// A State is constructed once at startup and handed to the components
// that need it. Views observe it through Subscribe instead of polling.
// The two fields are independent and nothing keeps them consistent;
// that is the job of whoever calls the setters (see internal/auth).
package session

// Field identifies which part of the state a Change refers to.
type Field int

const (
	// FieldUsername is reported when SetUsername replaces the username.
	FieldUsername Field = iota
	// FieldLoggedIn is reported when SetLoggedIn replaces the login flag.
	FieldLoggedIn
)

func (f Field) String() string {
	switch f {
	case FieldUsername:
		return "username"
	case FieldLoggedIn:
		return "logged_in"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the state at one point in time.
type Snapshot struct {
	Username string `json:"username"`
	LoggedIn bool   `json:"logged_in"`
}

// Change describes a single field update delivered to observers.
// Old and New hold the previous and current snapshot.
type Change struct {
	Field Field
	Old   Snapshot
	New   Snapshot
}

// Observer is called synchronously from inside a setter.
type Observer func(Change)

// State holds the current username and login flag.
//
// State is owned by a single goroutine (the command being run) and is not
// safe for concurrent use. Reads never fail and never block.
type State struct {
	username   string
	isLoggedIn bool

	observers map[int]Observer
	order     []int
	nextID    int
}

// New returns a State with an empty username and the login flag unset.
func New() *State {
	return &State{observers: make(map[int]Observer)}
}

// Username returns the stored username.
func (s *State) Username() string {
	return s.username
}

// IsLoggedIn reports the stored login flag.
func (s *State) IsLoggedIn() bool {
	return s.isLoggedIn
}

// Snapshot returns both fields at once.
func (s *State) Snapshot() Snapshot {
	return Snapshot{Username: s.username, LoggedIn: s.isLoggedIn}
}

// SetUsername replaces the username. Any string is accepted, including "".
func (s *State) SetUsername(newUsername string) {
	if s.username == newUsername {
		return
	}
	old := s.Snapshot()
	s.username = newUsername
	s.notify(Change{Field: FieldUsername, Old: old, New: s.Snapshot()})
}

// SetLoggedIn replaces the login flag.
func (s *State) SetLoggedIn(newLoggedIn bool) {
	if s.isLoggedIn == newLoggedIn {
		return
	}
	old := s.Snapshot()
	s.isLoggedIn = newLoggedIn
	s.notify(Change{Field: FieldLoggedIn, Old: old, New: s.Snapshot()})
}

// Subscribe registers fn to be called after every change and returns a
// function that removes it. Observers run in subscription order.
// Calling the returned function more than once is a no-op.
func (s *State) Subscribe(fn Observer) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	if s.observers == nil {
		s.observers = make(map[int]Observer)
	}
	id := s.nextID
	s.nextID++
	s.observers[id] = fn
	s.order = append(s.order, id)

	return func() {
		if _, ok := s.observers[id]; !ok {
			return
		}
		delete(s.observers, id)
		for i, v := range s.order {
			if v == id {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
}

// SubscribeField is like Subscribe but only delivers changes to field.
func (s *State) SubscribeField(field Field, fn Observer) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	return s.Subscribe(func(c Change) {
		if c.Field == field {
			fn(c)
		}
	})
}

func (s *State) notify(c Change) {
	// Copy so observers may unsubscribe while being notified.
	ids := append([]int(nil), s.order...)
	for _, id := range ids {
		if fn, ok := s.observers[id]; ok {
			fn(c)
		}
	}
}
