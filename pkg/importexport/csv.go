package importexport

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/smith3v/meowfacts/pkg/db"
	"github.com/smith3v/meowfacts/pkg/facts"
	"gorm.io/gorm"
)

// FactRecord is one parsed CSV row. ID is zero when the row carried only text.
type FactRecord struct {
	ID   uint
	Text string
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// delimiters are tried in order; ties keep the earlier one.
var delimiters = []rune{',', '\t', ';'}

var headerFields = map[string]bool{"id": true, "text": true, "fact": true}

const sniffRows = 20

func newReader(data []byte, comma rune) *csv.Reader {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return r
}

// ParseFactsCSV accepts "id,text" rows or single-column "text" rows. The
// delimiter is sniffed from the first records and a header row is skipped.
func ParseFactsCSV(data []byte) ([]FactRecord, int, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	r := newReader(data, detectCSVDelimiter(data))

	var (
		out     []FactRecord
		skipped int
		first   = true
	)
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, skipped, nil
		}
		if err != nil {
			return nil, skipped, err
		}
		if blankRow(row) {
			skipped++
			continue
		}
		if first {
			first = false
			if headerRow(row) {
				continue
			}
		}
		if rec, ok := parseRecord(row); ok {
			out = append(out, rec)
		} else {
			skipped++
		}
	}
}

func parseRecord(row []string) (FactRecord, bool) {
	var rec FactRecord
	text := row[0]
	if len(row) > 1 {
		if raw := strings.TrimSpace(row[0]); raw != "" {
			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				return rec, false
			}
			rec.ID = uint(id)
		}
		text = row[1]
	}
	rec.Text = facts.Sanitize(text)
	return rec, rec.Text != ""
}

// detectCSVDelimiter picks the delimiter that splits the most sampled rows
// into exactly two columns, defaulting to a comma.
func detectCSVDelimiter(data []byte) rune {
	best, bestHits := ',', 0
	for _, d := range delimiters {
		r := newReader(data, d)
		hits := 0
		for seen := 0; seen < sniffRows; {
			row, err := r.Read()
			if err != nil {
				if !errors.Is(err, io.EOF) {
					hits = 0
				}
				break
			}
			if blankRow(row) {
				continue
			}
			seen++
			if len(row) == 2 {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = d, hits
		}
	}
	return best
}

func blankRow(row []string) bool {
	for _, f := range row {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func headerRow(row []string) bool {
	for _, f := range row {
		if !headerFields[strings.ToLower(strings.TrimSpace(f))] {
			return false
		}
	}
	return true
}

// UpsertFacts writes parsed records in one transaction. Rows with an id
// replace that fact's text or create it under that id; rows without an id are
// appended after both the stored maximum and the largest id in records,
// unless the exact text already exists.
func UpsertFacts(ctx context.Context, records []FactRecord) (int, int, error) {
	inserted := 0
	updated := 0

	if len(records) == 0 {
		return inserted, updated, nil
	}

	err := db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var maxID uint
		if err := tx.Model(&db.Fact{}).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
			return err
		}
		// appended rows are numbered past every explicit id in the file too
		for _, rec := range records {
			if rec.ID > maxID {
				maxID = rec.ID
			}
		}
		now := time.Now().UTC()

		for _, rec := range records {
			if rec.ID != 0 {
				result := tx.Model(&db.Fact{}).
					Where("id = ?", rec.ID).
					Updates(map[string]any{"text": rec.Text, "updated_at": now})
				if result.Error != nil {
					return result.Error
				}
				if result.RowsAffected > 0 {
					updated++
					continue
				}
				if err := tx.Create(&db.Fact{ID: rec.ID, Text: rec.Text}).Error; err != nil {
					return err
				}
				inserted++
				continue
			}

			var existing int64
			if err := tx.Model(&db.Fact{}).Where("text = ?", rec.Text).Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				continue
			}
			maxID++
			if err := tx.Create(&db.Fact{ID: maxID, Text: rec.Text}).Error; err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}

	return inserted, updated, nil
}

func BuildExportCSV(list []db.Fact) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := buf.Write(utf8BOM); err != nil {
		return nil, err
	}

	writer := csv.NewWriter(&buf)
	writer.UseCRLF = true

	if err := writer.Write([]string{"id", "text"}); err != nil {
		return nil, err
	}
	for _, fact := range list {
		if err := writer.Write([]string{strconv.FormatUint(uint64(fact.ID), 10), fact.Text}); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func ExportFilename(now time.Time) string {
	return fmt.Sprintf("meowfacts-%s.csv", now.Format("20060102"))
}
