package mediatypes

import (
	"path/filepath"
	"strings"
)

// Family is the format family a file belongs to. The thumbnail synthesizer
// picks its fallback chain by family.
type Family string

const (
	// FamilyRaster covers formats the Go image decoders read directly.
	FamilyRaster Family = "raster"
	// FamilyRaw covers camera RAW formats.
	FamilyRaw Family = "raw"
	// FamilyHEIF covers HEIC/HEIF containers.
	FamilyHEIF Family = "heif"
	// FamilyVideo covers video containers. Videos never get a thumbnail.
	FamilyVideo Family = "video"
	// FamilyUnknown is anything unrecognized.
	FamilyUnknown Family = "unknown"
)

// RasterExtensions maps extensions decoded by the standard and x/image decoders.
var RasterExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
	".webp": true,
}

// RawExtensions maps camera RAW extensions.
var RawExtensions = map[string]bool{
	".nef": true,
	".cr2": true,
	".arw": true,
	".dng": true,
}

// HEIFExtensions maps HEIC/HEIF extensions.
var HEIFExtensions = map[string]bool{
	".heic": true,
	".heif": true,
}

// VideoExtensions maps video container extensions.
var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".m4v":  true,
	".3gp":  true,
	".avi":  true,
	".mkv":  true,
	".mts":  true,
	".m2ts": true,
	".wmv":  true,
	".mpg":  true,
	".mpeg": true,
}

// ISOBMFFExtensions are the video containers that carry a moov/mvhd box.
var ISOBMFFExtensions = map[string]bool{
	".mp4": true,
	".mov": true,
	".m4v": true,
	".3gp": true,
}

// MimeTypes maps file extensions to their MIME types.
var MimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".tiff": "image/tiff",
	".tif":  "image/tiff",
	".heic": "image/heic",
	".heif": "image/heif",
	".nef":  "image/x-nikon-nef",
	".cr2":  "image/x-canon-cr2",
	".arw":  "image/x-sony-arw",
	".dng":  "image/x-adobe-dng",
	".mp4":  "video/mp4",
	".mov":  "video/quicktime",
	".m4v":  "video/x-m4v",
	".3gp":  "video/3gpp",
	".avi":  "video/x-msvideo",
	".mkv":  "video/x-matroska",
	".mts":  "video/mp2t",
	".m2ts": "video/mp2t",
	".wmv":  "video/x-ms-wmv",
	".mpg":  "video/mpeg",
	".mpeg": "video/mpeg",
}

// Ext returns the lowercase extension of path including the leading dot.
func Ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// FamilyOf returns the Family for a given extension.
// The extension should be lowercase and include the leading dot (e.g., ".jpg").
// Returns FamilyUnknown if the extension is not recognized.
func FamilyOf(ext string) Family {
	switch {
	case RasterExtensions[ext]:
		return FamilyRaster
	case RawExtensions[ext]:
		return FamilyRaw
	case HEIFExtensions[ext]:
		return FamilyHEIF
	case VideoExtensions[ext]:
		return FamilyVideo
	default:
		return FamilyUnknown
	}
}

// FamilyOfPath is FamilyOf applied to the extension of path.
func FamilyOfPath(path string) Family {
	return FamilyOf(Ext(path))
}

// GetMimeType returns the MIME type for a given file extension.
// Returns "application/octet-stream" if the extension is not recognized.
func GetMimeType(ext string) string {
	if mime, ok := MimeTypes[ext]; ok {
		return mime
	}
	return "application/octet-stream"
}

// IsMediaFile returns true if the extension belongs to a known family.
func IsMediaFile(ext string) bool {
	return FamilyOf(ext) != FamilyUnknown
}
