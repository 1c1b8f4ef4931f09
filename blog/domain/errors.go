package domain

import "errors"

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrInvalidPostID    = errors.New("invalid post id")
	ErrStoreUnavailable = errors.New("content store unavailable")
	ErrUploadFailed     = errors.New("image upload failed")
)
