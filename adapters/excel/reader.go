// Package excel ingests expression matrices from Excel and CSV files and
// serves them as an ExpressionRepository. The expected layout is one gene per
// row: the first column holds the gene key, an optional category column tags
// the row's condition, and every remaining column is one timepoint.
package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/xuri/excelize/v2"

	"gopersist/domain/core"
	"gopersist/domain/series"
	"gopersist/internal"
	apperrors "gopersist/internal/errors"
	"gopersist/ports"
)

// Repository reads one expression matrix file and serves it as a dataset
// named after the file. It loads lazily on first access and caches the
// parsed series for the lifetime of the process.
type Repository struct {
	filePath       string
	fileType       string // "xlsx" or "csv"
	categoryColumn string
	logger         *internal.Logger

	loadOnce sync.Once
	loadErr  error
	dataset  core.DatasetID
	genes    map[core.GeneKey]series.TimeSeries
}

var _ ports.ExpressionRepository = (*Repository)(nil)

// NewRepository creates a repository over an Excel or CSV expression matrix.
// categoryColumn names the optional condition column; rows without it default
// to an empty category.
func NewRepository(filePath, categoryColumn string, logger *internal.Logger) *Repository {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	base := filepath.Base(filePath)
	return &Repository{
		filePath:       filePath,
		fileType:       fileType,
		categoryColumn: categoryColumn,
		logger:         logger,
		dataset:        core.DatasetID(strings.TrimSuffix(base, filepath.Ext(base))),
	}
}

// Dataset returns the dataset ID this repository serves, derived from the
// file name.
func (r *Repository) Dataset() core.DatasetID {
	return r.dataset
}

// Load parses the file once. Access methods call it implicitly; explicit
// use lets entrypoints fail fast on a bad file.
func (r *Repository) Load() error {
	r.loadOnce.Do(func() {
		r.loadErr = r.load()
	})
	return r.loadErr
}

func (r *Repository) load() error {
	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return apperrors.IngestionError(fmt.Sprintf("expression file not found: %s", r.filePath), err)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return apperrors.IngestionError(fmt.Sprintf("unsupported file type: %s", r.fileType), nil)
	}
	if err != nil {
		return err
	}
	if len(rows) < 2 {
		return apperrors.IngestionError("expression matrix needs a header row and at least one gene row", nil)
	}

	return r.processRows(rows)
}

func (r *Repository) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, apperrors.IngestionError("failed to open Excel file", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, apperrors.IngestionError("failed to read first sheet", err)
	}
	return rows, nil
}

func (r *Repository) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, apperrors.IngestionError("failed to open CSV file", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.IngestionError("failed to read CSV file", err)
	}
	return rows, nil
}

// processRows turns the raw matrix into per-gene time series. The header's
// value columns are parsed as numeric timepoints when every one of them
// parses; otherwise timepoints stay implicit unit-spaced indices.
func (r *Repository) processRows(rows [][]string) error {
	header := rows[0]
	for i, h := range header {
		header[i] = strings.TrimSpace(h)
	}
	if len(header) < 2 {
		return apperrors.IngestionError("expression matrix needs a gene column and at least one value column", nil)
	}

	categoryIdx := -1
	valueIdx := make([]int, 0, len(header)-1)
	for i := 1; i < len(header); i++ {
		if r.categoryColumn != "" && strings.EqualFold(header[i], r.categoryColumn) {
			categoryIdx = i
			continue
		}
		valueIdx = append(valueIdx, i)
	}
	if len(valueIdx) == 0 {
		return apperrors.IngestionError("expression matrix has no value columns", nil)
	}

	timepoints, haveTimepoints := parseTimepointHeader(header, valueIdx)

	genes := make(map[core.GeneKey]series.TimeSeries, len(rows)-1)
	skippedCells := 0
	for rowNum := 1; rowNum < len(rows); rowNum++ {
		row := rows[rowNum]
		if len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		gene := core.GeneKey(strings.TrimSpace(row[0]))

		category := ""
		if categoryIdx >= 0 && categoryIdx < len(row) {
			category = strings.TrimSpace(row[categoryIdx])
		}

		values := make([]float64, 0, len(valueIdx))
		tps := make([]float64, 0, len(valueIdx))
		for k, col := range valueIdx {
			if col >= len(row) {
				break
			}
			cell := strings.TrimSpace(row[col])
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				skippedCells++
				continue
			}
			values = append(values, v)
			if haveTimepoints {
				tps = append(tps, timepoints[k])
			}
		}

		ts := series.TimeSeries{Gene: gene, Category: category, Values: values}
		if haveTimepoints {
			ts.Timepoints = tps
		}
		genes[gene] = ts
	}

	if len(genes) == 0 {
		return apperrors.IngestionError("expression matrix contains no gene rows", nil)
	}

	r.logger.Info("excel: loaded %s (%d genes, %d timepoints, %d cells skipped)",
		r.dataset, len(genes), len(valueIdx), skippedCells)
	r.genes = genes
	return nil
}

// parseTimepointHeader returns the numeric timepoints from the value-column
// headers, or ok=false when any header is non-numeric.
func parseTimepointHeader(header []string, valueIdx []int) ([]float64, bool) {
	tps := make([]float64, len(valueIdx))
	for k, col := range valueIdx {
		v, err := strconv.ParseFloat(header[col], 64)
		if err != nil {
			return nil, false
		}
		tps[k] = v
	}
	return tps, true
}

// Genes lists gene keys in sorted order.
func (r *Repository) Genes(_ context.Context, dataset core.DatasetID) ([]core.GeneKey, error) {
	if err := r.checkDataset(dataset); err != nil {
		return nil, err
	}
	keys := make([]core.GeneKey, 0, len(r.genes))
	for k := range r.genes {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

// Series returns one gene's trajectory.
func (r *Repository) Series(_ context.Context, dataset core.DatasetID, gene core.GeneKey) (series.TimeSeries, error) {
	if err := r.checkDataset(dataset); err != nil {
		return series.TimeSeries{}, err
	}
	ts, ok := r.genes[gene]
	if !ok {
		return series.TimeSeries{}, fmt.Errorf("%w: %s", core.ErrUnknownGene, gene)
	}
	return ts, nil
}

// AllSeries returns every trajectory of the dataset.
func (r *Repository) AllSeries(_ context.Context, dataset core.DatasetID) (map[core.GeneKey]series.TimeSeries, error) {
	if err := r.checkDataset(dataset); err != nil {
		return nil, err
	}
	out := make(map[core.GeneKey]series.TimeSeries, len(r.genes))
	for k, v := range r.genes {
		out[k] = v
	}
	return out, nil
}

func (r *Repository) checkDataset(dataset core.DatasetID) error {
	if dataset != r.dataset {
		return fmt.Errorf("%w: %s", core.ErrUnknownDataset, dataset)
	}
	return r.Load()
}
