// Package mediatypes classifies files into format families for casket.
//
// This package is a dependency-free foundation imported by the metadata,
// thumbnail and ingest packages. It contains only extension tables and pure
// helpers.
//
// # Families
//
//	mediatypes.FamilyRaster  // jpg, png, gif, bmp, tiff, webp
//	mediatypes.FamilyRaw     // nef, cr2, arw, dng
//	mediatypes.FamilyHEIF    // heic, heif
//	mediatypes.FamilyVideo   // mp4, mov, m4v, ...
//	mediatypes.FamilyUnknown // everything else
//
// Classification is by extension only and is case-insensitive when using
// FamilyOfPath:
//
//	switch mediatypes.FamilyOfPath(path) {
//	case mediatypes.FamilyRaw:
//	    // demosaic or embedded preview
//	case mediatypes.FamilyVideo:
//	    // no thumbnail
//	}
package mediatypes
