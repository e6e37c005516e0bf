// Package testutil builds small synthetic media files for tests: JPEG and PNG
// images, TIFF containers with EXIF fields and embedded previews, and
// ISO-BMFF movies with a creation time.
package testutil

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"
)

// TIFF field types.
const (
	typeASCII = 2
	typeShort = 3
	typeLong  = 4
)

// Well-known tag IDs.
const (
	TagMake                    = 0x010F
	TagModel                   = 0x0110
	TagDateTime                = 0x0132
	TagJPEGInterchangeFormat   = 0x0201
	TagJPEGInterchangeFormatLn = 0x0202
	TagExifIFDPointer          = 0x8769
	TagDateTimeOriginal        = 0x9003
	TagImageWidth              = 0x0100
	TagOrientation             = 0x0112
)

// Entry is one IFD entry with its raw little-endian value bytes.
type Entry struct {
	Tag   uint16
	Type  uint16
	Count uint32
	Value []byte
}

// ASCII returns a NUL-terminated ASCII entry.
func ASCII(tag uint16, s string) Entry {
	v := append([]byte(s), 0)
	return Entry{Tag: tag, Type: typeASCII, Count: uint32(len(v)), Value: v}
}

// Long returns a single LONG entry.
func Long(tag uint16, v uint32) Entry {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, v)
	return Entry{Tag: tag, Type: typeLong, Count: 1, Value: b}
}

// Short returns a single SHORT entry.
func Short(tag uint16, v uint16) Entry {
	b := make([]byte, 2)
	binary.LittleEndian.PutUint16(b, v)
	return Entry{Tag: tag, Type: typeShort, Count: 1, Value: b}
}

// TIFF describes a little-endian TIFF container. Exif, when non-nil, is
// written as a sub-IFD referenced from IFD0. Preview0 and Preview1 are stored
// as JPEGInterchangeFormat blobs referenced from IFD0 and IFD1.
type TIFF struct {
	IFD0     []Entry
	Exif     []Entry
	IFD1     []Entry
	Preview0 []byte
	Preview1 []byte
}

func (t TIFF) hasIFD1() bool { return t.IFD1 != nil || t.Preview1 != nil }

// Bytes lays out the container.
func (t TIFF) Bytes() []byte {
	ifd0 := append([]Entry(nil), t.IFD0...)
	if t.Exif != nil {
		ifd0 = append(ifd0, Long(TagExifIFDPointer, 0))
	}
	if t.Preview0 != nil {
		ifd0 = append(ifd0, Long(TagJPEGInterchangeFormat, 0), Long(TagJPEGInterchangeFormatLn, uint32(len(t.Preview0))))
	}
	ifd1 := append([]Entry(nil), t.IFD1...)
	if t.Preview1 != nil {
		ifd1 = append(ifd1, Long(TagJPEGInterchangeFormat, 0), Long(TagJPEGInterchangeFormatLn, uint32(len(t.Preview1))))
	}
	exifIFD := append([]Entry(nil), t.Exif...)

	off0 := uint32(8)
	offExif := off0 + ifdSize(ifd0)
	offIFD1 := offExif
	if t.Exif != nil {
		offIFD1 += ifdSize(exifIFD)
	}
	offP0 := offIFD1
	if t.hasIFD1() {
		offP0 += ifdSize(ifd1)
	}
	offP1 := offP0 + uint32(len(t.Preview0))

	setLong(ifd0, TagExifIFDPointer, offExif)
	setLong(ifd0, TagJPEGInterchangeFormat, offP0)
	setLong(ifd1, TagJPEGInterchangeFormat, offP1)

	var buf bytes.Buffer
	buf.WriteString("II*\x00")
	_ = binary.Write(&buf, binary.LittleEndian, off0)

	next := uint32(0)
	if t.hasIFD1() {
		next = offIFD1
	}
	writeIFD(&buf, ifd0, off0, next)
	if t.Exif != nil {
		writeIFD(&buf, exifIFD, offExif, 0)
	}
	if t.hasIFD1() {
		writeIFD(&buf, ifd1, offIFD1, 0)
	}
	buf.Write(t.Preview0)
	buf.Write(t.Preview1)
	return buf.Bytes()
}

func setLong(entries []Entry, tag uint16, v uint32) {
	for i := range entries {
		if entries[i].Tag == tag {
			binary.LittleEndian.PutUint32(entries[i].Value, v)
		}
	}
}

func valueSize(e Entry) uint32 {
	n := uint32(len(e.Value))
	if n <= 4 {
		return 0
	}
	return n + n%2
}

func ifdSize(entries []Entry) uint32 {
	size := uint32(2 + 12*len(entries) + 4)
	for _, e := range entries {
		size += valueSize(e)
	}
	return size
}

func writeIFD(buf *bytes.Buffer, entries []Entry, offset, next uint32) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Tag < entries[j].Tag })

	dataOff := offset + uint32(2+12*len(entries)+4)
	var data bytes.Buffer

	_ = binary.Write(buf, binary.LittleEndian, uint16(len(entries)))
	for _, e := range entries {
		_ = binary.Write(buf, binary.LittleEndian, e.Tag)
		_ = binary.Write(buf, binary.LittleEndian, e.Type)
		_ = binary.Write(buf, binary.LittleEndian, e.Count)
		if len(e.Value) <= 4 {
			v := make([]byte, 4)
			copy(v, e.Value)
			buf.Write(v)
			continue
		}
		_ = binary.Write(buf, binary.LittleEndian, dataOff+uint32(data.Len()))
		data.Write(e.Value)
		if len(e.Value)%2 == 1 {
			data.WriteByte(0)
		}
	}
	_ = binary.Write(buf, binary.LittleEndian, next)
	buf.Write(data.Bytes())
}

// CameraEXIF returns a TIFF carrying make, model and capture time fields.
// Empty strings omit the corresponding field.
func CameraEXIF(cameraMake, model, dateTimeOriginal, dateTime string) TIFF {
	var t TIFF
	if cameraMake != "" {
		t.IFD0 = append(t.IFD0, ASCII(TagMake, cameraMake))
	}
	if model != "" {
		t.IFD0 = append(t.IFD0, ASCII(TagModel, model))
	}
	if dateTime != "" {
		t.IFD0 = append(t.IFD0, ASCII(TagDateTime, dateTime))
	}
	if dateTimeOriginal != "" {
		t.Exif = []Entry{ASCII(TagDateTimeOriginal, dateTimeOriginal)}
	}
	if t.IFD0 == nil {
		t.IFD0 = []Entry{Short(TagImageWidth, 1)}
	}
	return t
}

// Gradient returns a w x h image with a diagonal gradient.
func Gradient(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / max(w, 1)), G: uint8(y * 255 / max(h, 1)), B: 128, A: 255})
		}
	}
	return img
}

// JPEG encodes img at quality 90.
func JPEG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

// PNG encodes img.
func PNG(t testing.TB, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// WithEXIF inserts an APP1 Exif segment carrying tiff right after the SOI
// marker of a JPEG stream.
func WithEXIF(jpegData []byte, tiff []byte) []byte {
	payload := append([]byte("Exif\x00\x00"), tiff...)
	var buf bytes.Buffer
	buf.Write(jpegData[:2])
	buf.Write([]byte{0xFF, 0xE1})
	_ = binary.Write(&buf, binary.BigEndian, uint16(len(payload)+2))
	buf.Write(payload)
	buf.Write(jpegData[2:])
	return buf.Bytes()
}

// appleEpochOffset is the number of seconds between 1904-01-01 and 1970-01-01.
const appleEpochOffset = 2082844800

// MP4 returns a minimal ISO-BMFF file (ftyp + moov/mvhd) whose movie header
// carries created. A zero time writes a zero creation field.
func MP4(created time.Time) []byte {
	var creation uint32
	if !created.IsZero() {
		creation = uint32(created.Unix() + appleEpochOffset)
	}

	var mvhd bytes.Buffer
	mvhd.Write([]byte{0, 0, 0, 0}) // version 0, flags
	_ = binary.Write(&mvhd, binary.BigEndian, creation)
	_ = binary.Write(&mvhd, binary.BigEndian, creation) // modification
	_ = binary.Write(&mvhd, binary.BigEndian, uint32(1000))
	_ = binary.Write(&mvhd, binary.BigEndian, uint32(0)) // duration
	_ = binary.Write(&mvhd, binary.BigEndian, uint32(0x00010000))
	_ = binary.Write(&mvhd, binary.BigEndian, uint16(0x0100))
	mvhd.Write(make([]byte, 10))
	for _, v := range []uint32{0x00010000, 0, 0, 0, 0x00010000, 0, 0, 0, 0x40000000} {
		_ = binary.Write(&mvhd, binary.BigEndian, v)
	}
	mvhd.Write(make([]byte, 24))
	_ = binary.Write(&mvhd, binary.BigEndian, uint32(2)) // next track ID

	mvhdBox := box("mvhd", mvhd.Bytes())
	moov := box("moov", mvhdBox)

	var ftyp bytes.Buffer
	ftyp.WriteString("qt  ")
	_ = binary.Write(&ftyp, binary.BigEndian, uint32(0x200))
	ftyp.WriteString("qt  ")

	return append(box("ftyp", ftyp.Bytes()), moov...)
}

func box(typ string, payload []byte) []byte {
	var buf bytes.Buffer
	_ = binary.Write(&buf, binary.BigEndian, uint32(8+len(payload)))
	buf.WriteString(typ)
	buf.Write(payload)
	return buf.Bytes()
}

// WriteFile writes data to dir/name, creating dir, and returns the path.
func WriteFile(t testing.TB, dir, name string, data []byte) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
