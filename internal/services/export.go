package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pennywise-app/apiserver/internal/metrics"
	"github.com/pennywise-app/apiserver/internal/storage"
	"github.com/pennywise-app/apiserver/types"
)

const statementContentType = "text/csv"

// ErrExportDisabled is returned when no object storage is configured.
var ErrExportDisabled = errors.New("statement export is not configured")

var statementHeader = []string{"id", "type", "category", "amount", "description", "date"}

// TransactionLister is the read side of TransactionRepository.
type TransactionLister interface {
	ListByUser(ctx context.Context, userID int) ([]types.Transaction, error)
}

// ExportService writes CSV statements of a user's transactions to object
// storage.
type ExportService struct {
	repo    TransactionLister
	objects storage.ObjectStorage
	now     func() time.Time
	newID   func() string
}

// NewExportService constructs the service. objects may be nil, in which
// case Export returns ErrExportDisabled.
func NewExportService(repo TransactionLister, objects storage.ObjectStorage) *ExportService {
	return &ExportService{repo: repo, objects: objects, now: time.Now, newID: uuid.NewString}
}

func (s *ExportService) Enabled() bool {
	return s != nil && s.objects != nil
}

// Export uploads statements/user-<id>/<timestamp>-<uuid>.csv.
func (s *ExportService) Export(ctx context.Context, ownerID int) (types.StatementExport, error) {
	if !s.Enabled() {
		return types.StatementExport{}, ErrExportDisabled
	}

	transactions, err := s.repo.ListByUser(ctx, ownerID)
	if err != nil {
		return types.StatementExport{}, fmt.Errorf("list transactions: %w", err)
	}

	data, err := renderStatement(transactions)
	if err != nil {
		return types.StatementExport{}, fmt.Errorf("render statement: %w", err)
	}

	now := s.now().UTC()
	key := fmt.Sprintf("statements/user-%d/%s-%s.csv", ownerID, now.Format("20060102T150405.000Z"), s.newID())
	err = s.objects.PutStatement(ctx, storage.Statement{
		Key:         key,
		Body:        bytes.NewReader(data),
		Size:        int64(len(data)),
		ContentType: statementContentType,
		Filename:    fmt.Sprintf("statement-%s.csv", now.Format("20060102")),
		OwnerID:     ownerID,
		Records:     len(transactions),
	})
	if err != nil {
		return types.StatementExport{}, fmt.Errorf("upload statement: %w", err)
	}

	metrics.StatementsExportedTotal.Inc()
	return types.StatementExport{
		Bucket: s.objects.Bucket(),
		Key:    key,
		Count:  len(transactions),
	}, nil
}

func renderStatement(transactions []types.Transaction) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(statementHeader); err != nil {
		return nil, err
	}
	for _, tx := range transactions {
		record := []string{
			strconv.Itoa(tx.ID),
			tx.Type,
			tx.Category,
			strconv.FormatFloat(tx.Amount, 'f', -1, 64),
			tx.Description,
			tx.Date.String(),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
