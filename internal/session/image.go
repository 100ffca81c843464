package session

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"time"

	"tracker/internal/core"
)

// Image slots a session can customize.
const (
	KindProfile = "profile"
	KindBanner  = "banner"
)

const (
	DefaultProfileURL = "https://upload.wikimedia.org/wikipedia/commons/5/50/Emoji_u1f600.svg"
	DefaultBannerURL  = "https://via.placeholder.com/800x200.png?text=Expense+Tracker"
)

var ErrUnknownImageKind = errors.New("unknown image kind")

// Image is either an uploaded picture (Data set) or a remote default (URL set).
type Image struct {
	Kind        string    `json:"kind"`
	URL         string    `json:"url,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	Size        int       `json:"size,omitempty"`
	UpdatedAt   time.Time `json:"updated_at,omitempty"`
	Data        []byte    `json:"-"`
}

// Custom reports whether the image was uploaded rather than defaulted.
func (img Image) Custom() bool {
	return len(img.Data) > 0
}

func defaultImages() map[string]Image {
	return map[string]Image{
		KindProfile: {Kind: KindProfile, URL: DefaultProfileURL},
		KindBanner:  {Kind: KindBanner, URL: DefaultBannerURL},
	}
}

// IsImageKind reports whether kind names an image slot.
func IsImageKind(kind string) bool {
	return kind == KindProfile || kind == KindBanner
}

// decodeImage checks that data is a PNG or JPEG and reads its dimensions.
func decodeImage(kind string, data []byte) (Image, error) {
	if len(data) == 0 {
		return Image{}, &core.ImageLoadError{Kind: kind, Err: errors.New("empty upload")}
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Image{}, &core.ImageLoadError{Kind: kind, Err: err}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Image{}, &core.ImageLoadError{Kind: kind, Err: fmt.Errorf("invalid dimensions %dx%d", cfg.Width, cfg.Height)}
	}
	return Image{
		Kind:        kind,
		ContentType: "image/" + format,
		Width:       cfg.Width,
		Height:      cfg.Height,
		Size:        len(data),
		Data:        append([]byte(nil), data...),
	}, nil
}
