// Package errors provides the classified error type used across campus.
//
// Every failure that crosses a package boundary is a ClassifiedError carrying
// a category (not_found, content, compile, search, ...), a severity and a
// context map. The CLI adapter turns categories into exit codes, the HTTP
// adapter into status codes for the preview server.
//
//	err := errors.NotFoundError("referenced entity does not exist").
//		WithContext("kind", "person").
//		WithContext("id", "jane-doe").
//		WithCause(ioErr).
//		Build()
package errors
