// Copyright (c) 2025 nsctl contributors
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package ui holds the terminal views that read the session state: the
// header line showing who is logged in and the guard that keeps protected
// commands behind a login.
package ui

import (
	"fmt"

	"nsctl/cli/internal/session"

	"atomicgo.dev/cursor"
	"github.com/pterm/pterm"
)

// Area is the live region the header renders into.
// *pterm.AreaPrinter satisfies it.
type Area interface {
	Update(text ...any)
}

// Header keeps a one-line area in sync with the session state.
type Header struct {
	area   Area
	server string
	cancel func()
	stop   func()
}

// HeaderText renders the header line for a snapshot.
func HeaderText(s session.Snapshot, server string) string {
	suffix := ""
	if server != "" {
		suffix = pterm.FgGray.Sprintf(" · %s", server)
	}
	switch {
	case s.LoggedIn && s.Username != "":
		return fmt.Sprintf("👤 %s%s", pterm.Bold.Sprint(s.Username), suffix)
	case s.LoggedIn:
		return fmt.Sprintf("👤 logged in%s", suffix)
	case s.Username != "":
		return fmt.Sprintf("🔒 %s (signed out)%s", s.Username, suffix)
	default:
		return fmt.Sprintf("🔒 not logged in%s", suffix)
	}
}

// BindHeader renders st into area now and again after every change.
func BindHeader(st *session.State, area Area, server string) *Header {
	h := &Header{area: area, server: server}
	h.render(st.Snapshot())
	h.cancel = st.Subscribe(func(c session.Change) {
		h.render(c.New)
	})
	return h
}

// StartHeader opens a pterm area at the current cursor position and binds
// it to st. Close must be called to restore the cursor.
func StartHeader(st *session.State, server string) (*Header, error) {
	cursor.Hide()
	area, err := pterm.DefaultArea.Start()
	if err != nil {
		cursor.Show()
		return nil, err
	}
	h := BindHeader(st, area, server)
	h.stop = func() {
		_ = area.Stop()
		cursor.Show()
	}
	return h, nil
}

func (h *Header) render(s session.Snapshot) {
	h.area.Update(HeaderText(s, h.server))
}

// Close stops following the state. The last rendered line stays on screen.
func (h *Header) Close() {
	if h.cancel != nil {
		h.cancel()
		h.cancel = nil
	}
	if h.stop != nil {
		h.stop()
		h.stop = nil
	}
}
