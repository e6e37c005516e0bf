// Package dateindex decides where a file lands in the catalog: the ten-digit
// YYYYMMDDHH indexed key stored with its record, and the YYYY/MM/DD directory
// it is copied into under the data and thumbnail roots.
//
// Both values come from the same instant, picked by one fallback chain:
// embedded capture time, file creation time, file modification time, and
// finally the current time. The key and the directory therefore never
// disagree about the day.
package dateindex
