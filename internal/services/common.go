package services

import "errors"

// ErrValidation marks request payloads that fail business validation.
// Handlers map it to a 400 with the wrapped detail message.
var ErrValidation = errors.New("validation failed")

// CSVExport is the shared shape of every CSV download endpoint: the file
// content base64-encoded plus a timestamped filename.
type CSVExport struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
}
