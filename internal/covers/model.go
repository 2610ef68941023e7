package covers

import "time"

// CoverImage is a marketplace landing-page banner. At most one image is
// active at a time.
type CoverImage struct {
	ID          int64
	Title       string
	ObjectKey   string
	ContentType string
	SizeBytes   int64
	Active      bool
	UploadedBy  string
	CreatedAt   time.Time
}
