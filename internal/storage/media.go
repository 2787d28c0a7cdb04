package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// Kind classifies an upload.
type Kind string

const (
	KindImage    Kind = "image"
	KindDocument Kind = "document"
	KindVideo    Kind = "video"
)

var (
	ErrUnsupportedKind = errors.New("storage: unsupported media kind")
	ErrUnsupportedType = errors.New("storage: unsupported content type")
	ErrTooLarge        = errors.New("storage: file too large")
	ErrEmpty           = errors.New("storage: empty file")
)

var allowedTypes = map[Kind][]string{
	KindImage: {"image/jpeg", "image/png", "image/gif", "image/webp"},
	KindDocument: {
		"application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"text/plain",
	},
	KindVideo: {"video/mp4", "video/webm", "video/quicktime"},
}

// ParseKind validates a client supplied kind.
func ParseKind(raw string) (Kind, error) {
	k := Kind(raw)
	if _, ok := allowedTypes[k]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedKind, raw)
	}
	return k, nil
}

// Limits caps upload sizes in bytes.
type Limits struct {
	Default int64
	Video   int64
}

func (l Limits) For(kind Kind) int64 {
	if kind == KindVideo {
		return l.Video
	}
	return l.Default
}

// Object describes a stored upload.
type Object struct {
	Kind Kind   `json:"kind"`
	Key  string `json:"key"`
	URL  string `json:"url"`
	MIME string `json:"mime"`
	Size int64  `json:"size"`
}

// ValidateMedia sniffs data and checks it against the types allowed for
// kind. The declared client content type is never trusted.
func ValidateMedia(kind Kind, data []byte, limits Limits) (*mimetype.MIME, error) {
	allowed, ok := allowedTypes[kind]
	if !ok {
		return nil, ErrUnsupportedKind
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	if limit := limits.For(kind); limit > 0 && int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, len(data), limit)
	}
	detected := mimetype.Detect(data)
	for _, t := range allowed {
		if detected.Is(t) {
			return detected, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, detected.String())
}

// SaveMedia validates data and stores it under campaign-<kind>s/<uuid><ext>.
func (s *FileStore) SaveMedia(ctx context.Context, kind Kind, data []byte, limits Limits) (*Object, error) {
	detected, err := ValidateMedia(kind, data, limits)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("campaign-%ss/%s%s", kind, uuid.NewString(), detected.Extension())
	key, err = s.Write(ctx, key, data)
	if err != nil {
		return nil, err
	}
	return &Object{
		Kind: kind,
		Key:  key,
		URL:  s.PublicURL(key),
		MIME: detected.String(),
		Size: int64(len(data)),
	}, nil
}
