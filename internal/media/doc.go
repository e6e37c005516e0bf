// Package media synthesizes browsing thumbnails for ingested files.
//
// Each format family has an ordered chain of decode tiers:
//   - Raster: a single decode through imaging, with libvips shrink-on-load
//     for very large images
//   - RAW: libvips 8-bit demosaic, libvips 16-bit demosaic, the JPEG preview
//     embedded in the TIFF structure, and for DNG an external converter
//   - HEIF: an external converter writing a temporary JPEG
//
// The first tier that yields an image wins. The image is scaled down to the
// configured long edge and written next to the destination base as JPEG.
// Tier failures are logged at debug level and never surface to the caller.
package media
