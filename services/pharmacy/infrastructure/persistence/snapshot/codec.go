// Package snapshot encodes a pharmacy catalog into a self-describing binary
// envelope and moves it to and from files. Every repository backend stores
// the bytes produced here.
package snapshot

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"

	"github.com/ghuser/pharmacy/services/pharmacy/domain/models"
)

const (
	// Magic prefixes every encoded snapshot.
	Magic = "PHRM"

	// FormatVersion is the envelope version written by Encode.
	FormatVersion byte = 1

	headerLen = len(Magic) + 1
)

var (
	// ErrCorrupt is returned when the data is not a snapshot envelope or its body does not decode.
	ErrCorrupt = errors.New("snapshot is corrupt")

	// ErrUnsupportedVersion is returned for envelopes written by a newer format.
	ErrUnsupportedVersion = errors.New("unsupported snapshot version")
)

var codec = jsoniter.ConfigCompatibleWithStandardLibrary

// Document is the JSON body of a snapshot envelope.
type Document struct {
	ID       uuid.UUID            `json:"id"`
	SavedAt  time.Time            `json:"saved_at"`
	Pharmacy models.PharmacyState `json:"pharmacy"`
}

// Build captures the current state of p under a fresh snapshot id.
func Build(p *models.Pharmacy) Document {
	return Document{
		ID:       uuid.New(),
		SavedAt:  time.Now().UTC(),
		Pharmacy: p.State(),
	}
}

// Encode serializes p into a versioned envelope.
func Encode(p *models.Pharmacy) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("encode snapshot: pharmacy is nil")
	}
	return EncodeDocument(Build(p))
}

// EncodeDocument serializes doc into a versioned envelope.
func EncodeDocument(doc Document) ([]byte, error) {
	body, err := codec.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	buf := bytes.NewBuffer(make([]byte, 0, headerLen+len(body)))
	buf.WriteString(Magic)
	buf.WriteByte(FormatVersion)
	buf.Write(body)
	return buf.Bytes(), nil
}

// DecodeDocument parses the envelope without rebuilding the catalog.
func DecodeDocument(data []byte) (Document, error) {
	if len(data) < headerLen || string(data[:len(Magic)]) != Magic {
		return Document{}, fmt.Errorf("%w: missing %s header", ErrCorrupt, Magic)
	}
	if v := data[len(Magic)]; v != FormatVersion {
		return Document{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	var doc Document
	if err := codec.Unmarshal(data[headerLen:], &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return doc, nil
}

// Decode rebuilds the catalog stored in data. seq is attached to the result
// and is not advanced past the restored ids.
func Decode(data []byte, seq *models.IDSequence) (*models.Pharmacy, error) {
	doc, err := DecodeDocument(data)
	if err != nil {
		return nil, err
	}
	p, err := models.RestorePharmacy(seq, doc.Pharmacy)
	if err != nil {
		return nil, fmt.Errorf("restore snapshot: %w", err)
	}
	return p, nil
}
