// Package metadata extracts capture metadata (capture time, camera make and
// model) from media files.
//
// Extraction is total: Extract never returns an error. Each [Reader] that
// cannot open or parse a file is skipped and its failure is only logged at
// debug level. Readers run in order and fill fields still unset:
//
//   - exif: goexif over JPEG APP1 segments and TIFF-based RAW containers.
//     DateTimeOriginal is preferred, DateTime is the fallback.
//   - mp4: the moov/mvhd creation time of ISO-BMFF videos.
//   - exiftool (optional): a long-running exiftool process.
//
// EXIF timestamps carry no zone. They are parsed with the exact layout
// "2006:01:02 15:04:05" and interpreted in the local zone; a wall time that
// occurs twice resolves to the earlier instant and one that never occurs is
// left unset.
package metadata
