package playback

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// MaxTextLength is the longest accepted input, in characters.
const MaxTextLength = 3000

var (
	// ErrInputEmpty is returned for empty text.
	ErrInputEmpty = errors.New("please enter some text to speak")

	// ErrInputTooLong is returned for text over MaxTextLength characters.
	ErrInputTooLong = fmt.Errorf("text exceeds the %d character limit", MaxTextLength)

	// ErrClosed is returned by calls made after Close.
	ErrClosed = errors.New("playback controller closed")
)

// Code identifies an error class.
type Code string

const (
	CodeInputInvalid         Code = "INPUT_INVALID"
	CodeCaptureUnavailable   Code = "CAPTURE_UNAVAILABLE"
	CodePlatformSpeech       Code = "PLATFORM_SPEECH"
	CodeEncodingPrecondition Code = "ENCODING_PRECONDITION"
)

// Error is a playback failure with a class and the underlying cause.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsUserFacing reports whether the error belongs on the status line.
// Encoding preconditions are programming errors and are only logged.
func (e *Error) IsUserFacing() bool {
	return e.Code != CodeEncodingPrecondition
}

func newError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// ValidateText accepts text of 1 to MaxTextLength characters. Content is
// not inspected; whitespace counts.
func ValidateText(text string) error {
	n := utf8.RuneCountInString(text)
	switch {
	case n == 0:
		return newError(CodeInputInvalid, ErrInputEmpty.Error(), ErrInputEmpty)
	case n > MaxTextLength:
		return newError(CodeInputInvalid, fmt.Sprintf("%d characters", n), ErrInputTooLong)
	}
	return nil
}
