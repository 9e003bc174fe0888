package export

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/farmchainx/internal/domain/models"
	"github.com/mamadbah2/farmchainx/internal/metrics"
)

type fakeSheets struct {
	cleared  []string
	written  map[string][][]interface{}
	clearErr error
}

func (f *fakeSheets) ClearRange(_ context.Context, sheetRange string) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = append(f.cleared, sheetRange)
	return nil
}

func (f *fakeSheets) WriteRows(_ context.Context, sheetRange string, rows [][]interface{}) error {
	if f.written == nil {
		f.written = make(map[string][][]interface{})
	}
	f.written[sheetRange] = rows
	return nil
}

type staticRecords []models.ProductRecord

func (s staticRecords) List(context.Context) []models.ProductRecord { return s }

func TestExport(t *testing.T) {
	ctx := context.Background()

	t.Run("WritesHeaderAndRows", func(t *testing.T) {
		sheets := &fakeSheets{}
		records := staticRecords{
			{ID: 1735689600000, Name: "Tomatoes", Status: "farmer", CreatedBy: "a@x"},
			{ID: 1735689600001, Name: "Wheat", Location: "Labé"},
		}
		svc := NewService(sheets, records, metrics.New(), nil)

		count, err := svc.Export(ctx)
		require.NoError(t, err)
		require.Equal(t, 2, count)
		require.Equal(t, []string{productsRange}, sheets.cleared)

		rows := sheets.written[productsRange]
		require.Len(t, rows, 3)
		require.Equal(t, header, rows[0])
		require.Equal(t, "1735689600000", rows[1][0])
		require.Equal(t, "Tomatoes", rows[1][1])
		require.Equal(t, "Labé", rows[2][9])
		require.Len(t, rows[1], len(header))
	})

	t.Run("PropagatesSheetFailures", func(t *testing.T) {
		sheets := &fakeSheets{clearErr: errors.New("quota exceeded")}
		svc := NewService(sheets, staticRecords{}, nil, nil)

		_, err := svc.Export(ctx)
		require.ErrorContains(t, err, "quota exceeded")
		require.Nil(t, sheets.written)
	})
}
