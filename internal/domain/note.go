package domain

import "fmt"

// Note is an advisory annotation attached to a decode result describing data
// that was dropped or adjusted. Notes never abort a conversion.
type Note struct {
	Code    NoteCode
	Message string
}

func (n Note) String() string {
	return string(n.Code) + ": " + n.Message
}

// Notef builds a Note with a formatted message.
func Notef(code NoteCode, format string, args ...any) Note {
	return Note{Code: code, Message: fmt.Sprintf(format, args...)}
}
