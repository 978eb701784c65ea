package ingest

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/dgallion1/deckseg/internal/asset"
)

// CSVReader handles CSV files. The whole file becomes one sheet asset:
// first row as headers, a capped sample of data rows as body.
type CSVReader struct{}

const maxSampleRows = 40

func (p *CSVReader) Read(r io.Reader, docID, filename string) ([]asset.Asset, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	headers := records[0]
	rows := records[1:]
	if len(rows) > maxSampleRows {
		rows = rows[:maxSampleRows]
	}

	page := 0
	a := asset.Asset{
		ID:            docID + "-s0",
		DocumentID:    docID,
		PageIndex:     &page,
		QualitySource: sourceSheet,
		Filename:      filename,
		Structured: &asset.Structured{
			Kind: asset.KindSheet,
			Sheet: &asset.SheetPayload{
				Name:       trimExt(filename),
				Headers:    headers,
				SampleRows: rows,
			},
		},
	}
	return []asset.Asset{a}, nil
}
