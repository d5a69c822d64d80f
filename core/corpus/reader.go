package corpus

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrEmptyCorpus       = errors.New("corpus contains no token records")
	ErrUnknownFormat     = errors.New("unrecognized corpus format")
	ErrMalformedRecord   = errors.New("malformed corpus record")
	ErrMissingTokenField = errors.New("record is missing the token field")
)

// Record is one row of the external transcription table: the raw token
// plus its location and contextual tags. The schema is flat and
// immutable per corpus version.
type Record struct {
	Token   string `json:"token"`
	LineID  string `json:"line_id"`
	FolioID string `json:"folio_id"`
	Section string `json:"section"`
	Regime  string `json:"regime"`
}

// Snapshot is an immutable loaded corpus: the record table plus a
// content-hash version. Re-ingesting the same version must be a no-op
// downstream, so the version travels with the data.
type Snapshot struct {
	Version string
	Records []Record
}

// LoadSnapshot reads a CSV or JSON corpus file and stamps it with a
// content-hash version.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}

	var records []Record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		records, err = parseCSV(data)
	case ".json":
		records, err = parseJSON(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmptyCorpus
	}

	sum := sha256.Sum256(data)
	return &Snapshot{
		Version: hex.EncodeToString(sum[:]),
		Records: records,
	}, nil
}

// csv column order: token, line_id, folio_id, section, regime. A header
// row naming the first column "token" is skipped.
func parseCSV(data []byte) ([]Record, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1

	var records []Record
	first := true
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		if first {
			first = false
			if strings.EqualFold(strings.TrimSpace(row[0]), "token") {
				continue
			}
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("%w: want at least token,line_id,folio_id, got %d fields", ErrMalformedRecord, len(row))
		}
		rec := Record{
			Token:   strings.TrimSpace(row[0]),
			LineID:  strings.TrimSpace(row[1]),
			FolioID: strings.TrimSpace(row[2]),
		}
		if len(row) > 3 {
			rec.Section = strings.TrimSpace(row[3])
		}
		if len(row) > 4 {
			rec.Regime = strings.TrimSpace(row[4])
		}
		if rec.Token == "" {
			return nil, ErrMissingTokenField
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseJSON(data []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	for i, rec := range records {
		if rec.Token == "" {
			return nil, fmt.Errorf("%w: record %d", ErrMissingTokenField, i)
		}
	}
	return records, nil
}

// DecomposeAll runs the decomposer over a snapshot in record order,
// assigning each token its position within its line.
func DecomposeAll(d *Decomposer, snap *Snapshot) []Token {
	tokens := make([]Token, 0, len(snap.Records))
	linePos := make(map[string]int, 256)
	for _, rec := range snap.Records {
		pos := linePos[rec.LineID]
		linePos[rec.LineID] = pos + 1
		tokens = append(tokens, d.Decompose(rec.Token, rec.LineID, rec.FolioID, rec.Section, rec.Regime, pos))
	}
	return tokens
}
