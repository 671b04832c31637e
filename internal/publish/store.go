package publish

import "context"

// CacheControl is sent with every object.
const CacheControl = "public, max-age=31536000"

// Object is one upload.
type Object struct {
	Key             string
	ContentType     string
	CacheControl    string
	ContentEncoding string
	Body            []byte
}

// Store writes objects to a bucket. Put overwrites existing objects and
// makes them publicly readable.
type Store interface {
	Put(ctx context.Context, obj Object) error
}
