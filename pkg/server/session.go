package server

import (
	"github.com/NicolasHaas/linechat/pkg/model"
	"github.com/NicolasHaas/linechat/pkg/protocol"
	"github.com/NicolasHaas/linechat/pkg/store"
)

// Session is the authentication state machine of one connection. It starts
// logged out and moves only on successful USER and BYE requests. A Session
// is owned by a single connection goroutine and is not safe for concurrent use.
type Session struct {
	accounts store.AccountLookup
	state    model.SessionState
	username string
}

// NewSession returns a logged-out session that checks logins against accounts.
func NewSession(accounts store.AccountLookup) *Session {
	return &Session{accounts: accounts}
}

// State returns the current authentication state.
func (s *Session) State() model.SessionState {
	return s.state
}

// Username returns the logged-in user, or "" when logged out.
func (s *Session) Username() string {
	return s.username
}

// Handle interprets one framed message and returns the single response the
// client must receive. Failures never end the session.
func (s *Session) Handle(msg string) protocol.Response {
	req := protocol.ParseRequest(msg)
	switch req.Kind {
	case protocol.ReqUser:
		return s.login(req.Arg)
	case protocol.ReqPost:
		return s.post()
	case protocol.ReqBye:
		return s.logout()
	default:
		return protocol.RespInvalidRequest
	}
}

func (s *Session) login(username string) protocol.Response {
	if s.state == model.LoggedIn {
		return protocol.RespAlreadyLoggedIn
	}
	switch s.accounts.Lookup(username) {
	case model.StatusActive:
		s.state = model.LoggedIn
		s.username = username
		return protocol.RespLoginOK
	case model.StatusLocked:
		return protocol.RespAccountLocked
	default:
		return protocol.RespAccountNotFound
	}
}

func (s *Session) post() protocol.Response {
	if s.state != model.LoggedIn {
		return protocol.RespPostNotLoggedIn
	}
	return protocol.RespPostOK
}

func (s *Session) logout() protocol.Response {
	if s.state != model.LoggedIn {
		return protocol.RespByeNotLoggedIn
	}
	s.state = model.LoggedOut
	s.username = ""
	return protocol.RespLogoutOK
}
