package export

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mamadbah2/farmchainx/internal/domain/models"
	"github.com/mamadbah2/farmchainx/internal/metrics"
	repo "github.com/mamadbah2/farmchainx/internal/repository/sheets"
)

const productsRange = "Products!A:L"

var header = []interface{}{
	"ID", "Name", "Crop Type", "Soil Type", "Status", "Pesticides",
	"Planted Date", "Harvested Date", "Use Before", "Location", "Created By", "Image",
}

// RecordLister provides the full product collection.
type RecordLister interface {
	List(ctx context.Context) []models.ProductRecord
}

// Service mirrors the product table into a spreadsheet.
type Service struct {
	repo    repo.Repository
	records RecordLister
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewService wires a new export service instance.
func NewService(repository repo.Repository, records RecordLister, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repository, records: records, metrics: m, logger: logger}
}

// Export replaces the sheet content with a header and one row per record,
// returning the number of records written.
func (s *Service) Export(ctx context.Context) (int, error) {
	count, err := s.export(ctx)
	s.metrics.Export(err)
	return count, err
}

func (s *Service) export(ctx context.Context) (int, error) {
	all := s.records.List(ctx)

	rows := make([][]interface{}, 0, len(all)+1)
	rows = append(rows, header)
	for _, record := range all {
		rows = append(rows, Row(record))
	}

	if err := s.repo.ClearRange(ctx, productsRange); err != nil {
		return 0, fmt.Errorf("clear products sheet: %w", err)
	}
	if err := s.repo.WriteRows(ctx, productsRange, rows); err != nil {
		return 0, fmt.Errorf("write products sheet: %w", err)
	}

	s.logger.Info("products exported", zap.Int("records", len(all)))
	return len(all), nil
}

// Row flattens a record into spreadsheet cells in header order. The id is
// written as text so spreadsheets keep every digit.
func Row(record models.ProductRecord) []interface{} {
	return []interface{}{
		fmt.Sprint(record.ID),
		record.Name,
		record.CropType,
		record.SoilType,
		record.Status,
		record.Pesticides,
		record.PlantedDate,
		record.HarvestedDate,
		record.UseBefore,
		record.Location,
		record.CreatedBy,
		record.ImageURL,
	}
}
