package media

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/lunaplata/joyeria-backend/pkg/enums"
)

type mimeGroup string

const (
	mimeGroupImages mimeGroup = "images"
	mimeGroupPDFs   mimeGroup = "pdfs"
)

var mimeGroupNames = map[mimeGroup]string{
	mimeGroupImages: "images",
	mimeGroupPDFs:   "PDFs",
}

var mimeGroupTypes = map[mimeGroup][]string{
	mimeGroupImages: {"image/png", "image/jpeg", "image/webp", "image/gif"},
	mimeGroupPDFs:   {"application/pdf"},
}

var allowedMimeGroupsByKind = map[enums.MediaKind][]mimeGroup{
	enums.MediaKindProductImage: {mimeGroupImages},
	enums.MediaKindPaymentProof: {mimeGroupImages, mimeGroupPDFs},
}

var (
	mimeTypesByKind        = buildMimeTypesByKind()
	mimeDescriptionsByKind = buildMimeDescriptions()
)

func buildMimeTypesByKind() map[enums.MediaKind][]string {
	result := make(map[enums.MediaKind][]string, len(allowedMimeGroupsByKind))
	for kind, groups := range allowedMimeGroupsByKind {
		var list []string
		for _, group := range groups {
			list = append(list, mimeGroupTypes[group]...)
		}
		sort.Strings(list)
		result[kind] = list
	}
	return result
}

func buildMimeDescriptions() map[enums.MediaKind]string {
	result := make(map[enums.MediaKind]string, len(allowedMimeGroupsByKind))
	for kind, groups := range allowedMimeGroupsByKind {
		var descriptions []string
		for _, group := range groups {
			if name, ok := mimeGroupNames[group]; ok {
				descriptions = append(descriptions, name)
			}
		}
		result[kind] = humanReadableList(descriptions)
	}
	return result
}

func humanReadableList(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	default:
		return fmt.Sprintf("%s or %s", strings.Join(items[:len(items)-1], ", "), items[len(items)-1])
	}
}

// sniff detects the content type from the leading bytes. Client supplied
// content types are never trusted.
func sniff(head []byte) (contentType, ext string) {
	detected := mimetype.Detect(head)
	base := detected.String()
	if i := strings.IndexByte(base, ';'); i >= 0 {
		base = base[:i]
	}
	ext = detected.Extension()
	if ext == ".jpeg" {
		ext = ".jpg"
	}
	return strings.ToLower(strings.TrimSpace(base)), ext
}

func isAllowed(kind enums.MediaKind, contentType string) bool {
	for _, candidate := range mimeTypesByKind[kind] {
		if candidate == contentType {
			return true
		}
	}
	return false
}

func allowedMimeDescription(kind enums.MediaKind) string {
	if msg, ok := mimeDescriptionsByKind[kind]; ok && msg != "" {
		return msg
	}
	return "the approved file types"
}
