package enums

import "slices"

// MediaKind is the object prefix an uploaded image is stored under, e.g.
// "product-<uuid>-<name>".
type MediaKind string

const (
	MediaKindProduct  MediaKind = "product"
	MediaKindCategory MediaKind = "category"
	MediaKindAvatar   MediaKind = "avatar"
	MediaKindBlog     MediaKind = "blog"
	MediaKindBanner   MediaKind = "banner"
)

var mediaKinds = []MediaKind{MediaKindProduct, MediaKindCategory, MediaKindAvatar, MediaKindBlog, MediaKindBanner}

func (m MediaKind) String() string { return string(m) }

func (m MediaKind) IsValid() bool { return slices.Contains(mediaKinds, m) }

func ParseMediaKind(value string) (MediaKind, error) {
	return lookup("media kind", mediaKinds, value, false)
}
