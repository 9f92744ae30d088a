package inventory

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// storeHeader column names mirror the Row fields, with the container
// tags flattened.
var storeHeader = []string{
	"cardIndex",
	"cardType",
	"clipIndex",
	"fileIndex",
	"mediaType",
	"duration",
	"company",
	"product",
	"modificationTimestamp",
	"timecode",
	"path",
	"audioCodec",
	"audioSampleFormat",
}

// Store persists the inventory as a delimited audit record, appended to
// during the build and never rewritten.
type Store struct {
	file   *os.File
	writer *csv.Writer
}

// OpenStore creates the delimited inventory file and writes its header.
func OpenStore(path string) (*Store, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create inventory store: %w", err)
	}
	writer := csv.NewWriter(file)
	if err := writer.Write(storeHeader); err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("write inventory header: %w", err)
	}
	return &Store{file: file, writer: writer}, nil
}

// Append records one row.
func (s *Store) Append(row Row) error {
	clip := ""
	if row.ClipIndex > 0 {
		clip = strconv.Itoa(row.ClipIndex)
	}
	duration := ""
	if row.Duration > 0 {
		duration = strconv.FormatFloat(row.Duration, 'f', 3, 64)
	}
	record := []string{
		strconv.Itoa(row.CardIndex),
		string(row.CardType),
		clip,
		strconv.Itoa(row.FileIndex),
		string(row.MediaType),
		duration,
		row.Tags.Company,
		row.Tags.Product,
		row.Tags.ModificationTimestamp,
		row.Tags.Timecode,
		row.Path,
		row.AudioCodec,
		row.AudioSampleFormat,
	}
	if err := s.writer.Write(record); err != nil {
		return fmt.Errorf("append inventory row: %w", err)
	}
	return nil
}

// Close flushes and closes the store.
func (s *Store) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		_ = s.file.Close()
		return fmt.Errorf("flush inventory store: %w", err)
	}
	return s.file.Close()
}
