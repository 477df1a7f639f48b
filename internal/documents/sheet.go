package documents

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/Epistemic-Technology/micrograph-mcp/models"
)

// Sheet formats
const (
	SheetCSV     = "csv"
	SheetParquet = "parquet"
)

// SheetColumns are the column headers of the image metadata sheet, in order.
var SheetColumns = []string{
	"Page",
	"Image Number",
	"Filename",
	"Width (px)",
	"Height (px)",
	"Extension",
	"Color Space",
	"Bits per Component",
	"File Path",
}

// SheetWriter persists the rows of one document pass as a single table.
type SheetWriter interface {
	// Filename is the name the sheet is saved under inside the extraction
	// folder.
	Filename() string
	Write(w io.Writer, rows []models.ImageStreamRecord) error
}

// NewSheetWriter returns the writer for format. An empty format selects CSV.
func NewSheetWriter(format string) (SheetWriter, error) {
	switch strings.ToLower(format) {
	case "", SheetCSV:
		return CSVSheet{}, nil
	case SheetParquet:
		return ParquetSheet{}, nil
	}
	return nil, fmt.Errorf("unsupported sheet format: %s (expected 'csv' or 'parquet')", format)
}

type CSVSheet struct{}

func (CSVSheet) Filename() string { return "image_metadata.csv" }

func (CSVSheet) Write(w io.Writer, rows []models.ImageStreamRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SheetColumns); err != nil {
		return err
	}
	for _, r := range rows {
		record := []string{
			strconv.Itoa(r.Page),
			strconv.Itoa(r.ImageNumber),
			r.Filename,
			strconv.Itoa(r.Width),
			strconv.Itoa(r.Height),
			r.Extension,
			r.ColorSpace,
			strconv.Itoa(r.BitsPerComponent),
			r.FilePath,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ParquetRow is the Parquet layout of one sheet row. Column names match
// SheetColumns.
type ParquetRow struct {
	Page             int64  `parquet:"Page"`
	ImageNumber      int64  `parquet:"Image Number"`
	Filename         string `parquet:"Filename"`
	Width            int64  `parquet:"Width (px)"`
	Height           int64  `parquet:"Height (px)"`
	Extension        string `parquet:"Extension"`
	ColorSpace       string `parquet:"Color Space"`
	BitsPerComponent int64  `parquet:"Bits per Component"`
	FilePath         string `parquet:"File Path"`
}

type ParquetSheet struct{}

func (ParquetSheet) Filename() string { return "image_metadata.parquet" }

func (ParquetSheet) Write(w io.Writer, rows []models.ImageStreamRecord) error {
	out := make([]ParquetRow, len(rows))
	for i, r := range rows {
		out[i] = ParquetRow{
			Page:             int64(r.Page),
			ImageNumber:      int64(r.ImageNumber),
			Filename:         r.Filename,
			Width:            int64(r.Width),
			Height:           int64(r.Height),
			Extension:        r.Extension,
			ColorSpace:       r.ColorSpace,
			BitsPerComponent: int64(r.BitsPerComponent),
			FilePath:         r.FilePath,
		}
	}
	return parquet.Write(w, out)
}
