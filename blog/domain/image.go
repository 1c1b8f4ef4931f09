package domain

import "context"

// Image is a cover image submitted alongside a new post
type Image struct {
	Filename    string
	ContentType string
	Content     []byte
}

// UploadedImage is an image that the media service has accepted
type UploadedImage struct {
	URL string

	// Handle identifies the upload to the backend that produced it, for Discard.
	Handle string
}

type MediaUploader interface {
	// Upload sends the image to the media service and returns its public URL.
	// Any failure is reported as ErrUploadFailed.
	Upload(ctx context.Context, img *Image) (*UploadedImage, error)

	// Discard removes an upload that ended up without an owning post
	Discard(ctx context.Context, img *UploadedImage) error
}
