package delivery

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"hash/crc32"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/velurestudio/velure-backend/pkg/errors"
)

const trackingIDLen = 12

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// TrackingID derives a short stable identifier for one (user, image, moment)
// triple. The same second yields the same id, which is what forensic
// correlation needs: the id in the leaked file matches the logged row.
func TrackingID(userID, imageID uuid.UUID, at time.Time) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%d", userID, imageID, at.Unix())))
	return hex.EncodeToString(sum[:])[:trackingIDLen]
}

// EmbedTracking writes the tracking id into the file's metadata: a tEXt
// chunk for PNG, a COM segment for JPEG. Pixels are untouched, so the mark
// survives re-saves that preserve metadata and costs nothing to apply.
func EmbedTracking(data []byte, mimeType, trackingID string) ([]byte, error) {
	switch normalizeMime(mimeType) {
	case "image/png":
		return embedPNGText(data, trackingID)
	case "image/jpeg":
		return embedJPEGComment(data, trackingID)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unsupported image type %q for tracking metadata", mimeType))
	}
}

func normalizeMime(mimeType string) string {
	mime := strings.ToLower(strings.TrimSpace(mimeType))
	if mime == "image/jpg" {
		return "image/jpeg"
	}
	return mime
}

func trackingPayload(trackingID string) string {
	return "tracking:" + trackingID
}

// embedPNGText inserts a tEXt chunk with the Copyright keyword right after
// IHDR. IHDR is required to be the first chunk and has a fixed 13-byte body,
// so the insertion point is a constant offset.
func embedPNGText(data []byte, trackingID string) ([]byte, error) {
	const ihdrEnd = 8 + 4 + 4 + 13 + 4

	if len(data) < ihdrEnd || !bytes.HasPrefix(data, pngSignature) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "data is not a valid png")
	}

	body := append([]byte("Copyright\x00"), []byte(trackingPayload(trackingID))...)

	chunk := make([]byte, 0, 4+4+len(body)+4)
	chunk = binary.BigEndian.AppendUint32(chunk, uint32(len(body)))
	chunk = append(chunk, []byte("tEXt")...)
	chunk = append(chunk, body...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))

	out := make([]byte, 0, len(data)+len(chunk))
	out = append(out, data[:ihdrEnd]...)
	out = append(out, chunk...)
	out = append(out, data[ihdrEnd:]...)
	return out, nil
}

// embedJPEGComment inserts a COM segment directly after the SOI marker.
func embedJPEGComment(data []byte, trackingID string) ([]byte, error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "data is not a valid jpeg")
	}

	payload := []byte(trackingPayload(trackingID))

	segment := make([]byte, 0, 4+len(payload))
	segment = append(segment, 0xFF, 0xFE)
	segment = binary.BigEndian.AppendUint16(segment, uint16(len(payload)+2))
	segment = append(segment, payload...)

	out := make([]byte, 0, len(data)+len(segment))
	out = append(out, data[:2]...)
	out = append(out, segment...)
	out = append(out, data[2:]...)
	return out, nil
}
