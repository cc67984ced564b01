package scene

import (
	"image"
	"sync"
)

// ImageRef is an image that may still be loading. It settles exactly once,
// either with a decoded image or with an error.
type ImageRef struct {
	Src string

	once sync.Once
	done chan struct{}
	img  image.Image
	err  error
}

// NewImageRef returns a pending handle for src.
func NewImageRef(src string) *ImageRef {
	return &ImageRef{Src: src, done: make(chan struct{})}
}

// LoadedImage returns a handle that is already settled with img.
func LoadedImage(src string, img image.Image) *ImageRef {
	r := NewImageRef(src)
	r.Resolve(img, nil)
	return r
}

// Resolve settles the handle. Later calls are ignored.
func (r *ImageRef) Resolve(img image.Image, err error) {
	r.once.Do(func() {
		r.img, r.err = img, err
		close(r.done)
	})
}

// Done is closed once the image loaded or failed.
func (r *ImageRef) Done() <-chan struct{} {
	return r.done
}

// Complete reports whether the handle has settled.
func (r *ImageRef) Complete() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Image returns the decoded image, or nil while pending or after a failure.
func (r *ImageRef) Image() image.Image {
	if !r.Complete() {
		return nil
	}
	return r.img
}

// Err returns the load error once settled.
func (r *ImageRef) Err() error {
	if !r.Complete() {
		return nil
	}
	return r.err
}
