// Package protocol defines the line-oriented chat wire format: CRLF message
// framing, request parsing, and coded response lines.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// Delimiter terminates every request and response on the wire.
	Delimiter = "\r\n"

	// MaxMessageSize bounds a single framed message, delimiter included (16 KiB).
	MaxMessageSize = 16 * 1024
)

// Response status codes.
const (
	CodeConnected       = 100
	CodeLoginOK         = 110
	CodePostOK          = 120
	CodeLogoutOK        = 130
	CodeAccountLocked   = 211
	CodeAccountNotFound = 212
	CodeAlreadyLoggedIn = 213
	CodeNotLoggedIn     = 221
	CodeInvalidRequest  = 300
)

// Request command tokens.
const (
	CmdUser = "USER"
	CmdPost = "POST"
	CmdBye  = "BYE"
)

var (
	ErrClosed    = errors.New("protocol: connection closed by peer")
	ErrOverflow  = errors.New("protocol: message exceeds maximum size")
	ErrMalformed = errors.New("protocol: malformed response line")
)

// Response is a single coded status line sent by the server.
type Response struct {
	Code int
	Text string
}

// Canned responses, one per outcome the server can produce.
var (
	RespConnected       = Response{CodeConnected, "Connected to the server"}
	RespLoginOK         = Response{CodeLoginOK, "Logged in successfully"}
	RespPostOK          = Response{CodePostOK, "Post successful"}
	RespLogoutOK        = Response{CodeLogoutOK, "Logged out successfully!"}
	RespAccountLocked   = Response{CodeAccountLocked, "Account is locked"}
	RespAccountNotFound = Response{CodeAccountNotFound, "Account does not exist"}
	RespAlreadyLoggedIn = Response{CodeAlreadyLoggedIn, "Logged in FAILED, you have already logged in"}
	RespPostNotLoggedIn = Response{CodeNotLoggedIn, "Post FAILED, you have NOT logged in yet"}
	RespByeNotLoggedIn  = Response{CodeNotLoggedIn, "Log out FAILED, you have NOT logged in yet"}
	RespInvalidRequest  = Response{CodeInvalidRequest, "Invalid request"}
)

// String returns the response line without the delimiter.
func (r Response) String() string {
	return fmt.Sprintf("%03d-%s", r.Code, r.Text)
}

// Encode returns the wire form of the response, delimiter included.
func (r Response) Encode() []byte {
	return []byte(r.String() + Delimiter)
}

// OK reports whether the code is in the success range (1xx).
func (r Response) OK() bool {
	return r.Code >= 100 && r.Code < 200
}

// ParseResponse decodes a response line (without delimiter) of the form
// "<code>-<text>".
func ParseResponse(line string) (Response, error) {
	code, text, found := strings.Cut(line, "-")
	if !found || len(code) != 3 {
		return Response{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}
	n, err := strconv.Atoi(code)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}
	return Response{Code: n, Text: text}, nil
}

// RequestKind identifies a parsed request.
type RequestKind int

const (
	ReqInvalid RequestKind = iota
	ReqUser
	ReqPost
	ReqBye
)

func (k RequestKind) String() string {
	switch k {
	case ReqUser:
		return "user"
	case ReqPost:
		return "post"
	case ReqBye:
		return "bye"
	default:
		return "invalid"
	}
}

// Request is a decoded client message.
type Request struct {
	Kind RequestKind
	Arg  string
}

// ParseRequest decodes one framed message. BYE must be the whole message;
// USER and POST need a command token and an argument token. Tokens after the
// second are dropped.
func ParseRequest(msg string) Request {
	if msg == CmdBye {
		return Request{Kind: ReqBye}
	}
	fields := strings.FieldsFunc(msg, isASCIISpace)
	if len(fields) < 2 {
		return Request{Kind: ReqInvalid}
	}
	switch fields[0] {
	case CmdUser:
		return Request{Kind: ReqUser, Arg: fields[1]}
	case CmdPost:
		return Request{Kind: ReqPost, Arg: fields[1]}
	default:
		return Request{Kind: ReqInvalid}
	}
}

// isASCIISpace matches the C locale whitespace set; Unicode spaces such as
// U+00A0 stay part of a token.
func isASCIISpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// EncodeRequest builds the wire form of a request. An empty arg yields the
// bare command.
func EncodeRequest(cmd, arg string) []byte {
	if arg == "" {
		return []byte(cmd + Delimiter)
	}
	return []byte(cmd + " " + arg + Delimiter)
}
