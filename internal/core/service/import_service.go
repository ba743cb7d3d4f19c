package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/magmutual/users-api/internal/core/domain"
	"github.com/magmutual/users-api/internal/core/ports"
)

const utf8BOM = "\ufeff"

// ImportService turns a CSV stream into users, all rows or none.
type ImportService struct {
	repo    ports.UserRepository
	ledger  ports.ImportLedger // optional
	timeout time.Duration
	logger  zerolog.Logger
}

// NewImportService builds the service. ledger may be nil; timeout <= 0 means
// the import is bounded only by ctx.
func NewImportService(repo ports.UserRepository, ledger ports.ImportLedger, timeout time.Duration, logger zerolog.Logger) *ImportService {
	return &ImportService{repo: repo, ledger: ledger, timeout: timeout, logger: logger}
}

func (s *ImportService) ImportCSV(ctx context.Context, r io.Reader, idempotencyKey string) (*ports.ImportResult, error) {
	if res, ok := s.replay(ctx, idempotencyKey); ok {
		return res, nil
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.ErrEmptyUpload
	}
	if err != nil {
		return nil, fmt.Errorf("%w: header: %v", domain.ErrCSVParse, err)
	}
	columns := mapHeader(header)

	imported := 0
	err = s.repo.WithinTx(ctx, func(ctx context.Context, w ports.UserWriter) error {
		for row := 1; ; row++ {
			fields, err := reader.Read()
			if errors.Is(err, io.EOF) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("%w: row %d: %v", domain.ErrCSVParse, row, err)
			}

			u, err := toRecord(columns, fields).ToUser()
			if err != nil {
				return fmt.Errorf("%w: row %d: %w", domain.ErrImportRow, row, err)
			}
			if err := w.Save(ctx, u); err != nil {
				return fmt.Errorf("%w: row %d: %w", domain.ErrImportRow, row, err)
			}
			imported++
		}
	})
	if err != nil {
		s.logger.Warn().Err(err).Msg("csv import rolled back")
		return nil, err
	}

	s.logger.Info().Int("imported", imported).Msg("csv import committed")

	if idempotencyKey != "" && s.ledger != nil {
		if err := s.ledger.Remember(ctx, idempotencyKey, imported); err != nil {
			s.logger.Warn().Err(err).Str("idempotency_key", idempotencyKey).Msg("could not record import key")
		}
	}

	return &ports.ImportResult{Imported: imported}, nil
}

// replay answers from the ledger. Ledger failures are logged and the import
// proceeds.
func (s *ImportService) replay(ctx context.Context, key string) (*ports.ImportResult, bool) {
	if key == "" || s.ledger == nil {
		return nil, false
	}
	n, found, err := s.ledger.Lookup(ctx, key)
	if err != nil {
		s.logger.Warn().Err(err).Str("idempotency_key", key).Msg("import ledger unavailable")
		return nil, false
	}
	if !found {
		return nil, false
	}
	s.logger.Info().Str("idempotency_key", key).Int("imported", n).Msg("idempotent import replay")
	return &ports.ImportResult{Imported: n, Replayed: true}, true
}

// mapHeader resolves each header cell to a canonical field name, ignoring
// case and surrounding space. Unknown columns map to "".
func mapHeader(header []string) []string {
	canonical := make(map[string]string, len(domain.RecordFields))
	for _, f := range domain.RecordFields {
		canonical[strings.ToLower(f)] = f
	}

	columns := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		columns[i] = canonical[strings.ToLower(strings.TrimSpace(h))]
	}
	return columns
}

func toRecord(columns, fields []string) domain.Record {
	rec := make(domain.Record, len(domain.RecordFields))
	for i, name := range columns {
		if name == "" || i >= len(fields) {
			continue
		}
		rec[name] = fields[i]
	}
	return rec
}
