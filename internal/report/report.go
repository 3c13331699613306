// Package report assembles transaction reports for display and export. Rows
// come from the core API page by page; filtering by transaction type happens
// locally so switching filters never refetches.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/harborbank/portal/internal/coreapi"
)

const dateLayout = "2006-01-02"

// Request scopes one report operation. From and To are inclusive dates.
type Request struct {
	Scope string `validate:"required"`
	From  string `validate:"required,datetime=2006-01-02"`
	To    string `validate:"required,datetime=2006-01-02"`
	Type  string `validate:"omitempty,oneof=DEPOSIT WITHDRAW INTEREST_ACCRUAL INTEREST_PAYMENT"`
}

// FieldErrors maps form fields to validation messages. These are raised
// before any call reaches the core.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "invalid fields: " + strings.Join(fields, ", ")
}

// Format selects an export document type.
type Format string

const (
	FormatPDF   Format = "pdf"
	FormatExcel Format = "excel"
)

func (f Format) extension() string {
	if f == FormatExcel {
		return "xlsx"
	}
	return "pdf"
}

// Service fetches, filters, and exports transaction reports.
type Service struct {
	core        coreapi.Client
	logger      *slog.Logger
	concurrency int
	validate    *validator.Validate
	flight      singleflight.Group
}

// NewService builds a report service. concurrency bounds the page fan-out
// when a report spans multiple pages.
func NewService(core coreapi.Client, logger *slog.Logger, concurrency int) *Service {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Service{
		core:        core,
		logger:      logger,
		concurrency: concurrency,
		validate:    validator.New(),
	}
}

// check validates a request locally. A start date after the end date, or a
// missing date, is a field-level error and never reaches the network.
func (s *Service) check(req Request) error {
	errs := FieldErrors{}
	if err := s.validate.Struct(req); err != nil {
		var invalid validator.ValidationErrors
		if !errors.As(err, &invalid) {
			return err
		}
		for _, fe := range invalid {
			switch fe.Field() {
			case "From":
				errs["from"] = "A valid start date (YYYY-MM-DD) is required."
			case "To":
				errs["to"] = "A valid end date (YYYY-MM-DD) is required."
			case "Type":
				errs["type"] = "Unknown transaction type."
			case "Scope":
				errs["scope"] = "Report scope is required."
			}
		}
		return errs
	}

	from, _ := time.Parse(dateLayout, req.From)
	to, _ := time.Parse(dateLayout, req.To)
	if from.After(to) {
		errs["from"] = "The start date must not be after the end date."
		return errs
	}
	return nil
}

// Fetch returns all report rows in the range, filtered by type when one is
// selected. Duplicate triggers for the same logical request share a single
// in-flight fetch, so a double-click cannot fan out twice.
func (s *Service) Fetch(ctx context.Context, token string, req Request) ([]coreapi.Transaction, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}

	key := flightKey("fetch", token, req)
	v, err, shared := s.flight.Do(key, func() (any, error) {
		return s.fetchAll(ctx, token, req)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.logger.Debug("report fetch deduplicated", "scope", req.Scope)
	}
	return FilterByType(v.([]coreapi.Transaction), coreapi.TransactionType(req.Type)), nil
}

// fetchAll walks every page of the report through a bounded worker pool and
// reassembles the rows in page order.
func (s *Service) fetchAll(ctx context.Context, token string, req Request) ([]coreapi.Transaction, error) {
	query := coreapi.ReportQuery{Scope: req.Scope, From: req.From, To: req.To, Page: 1}
	first, err := s.core.ReportPage(ctx, token, query)
	if err != nil {
		return nil, err
	}
	if first.TotalPages <= 1 {
		return first.Rows, nil
	}

	pages := make([][]coreapi.Transaction, first.TotalPages)
	pages[0] = first.Rows

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for p := 2; p <= first.TotalPages; p++ {
		p := p
		g.Go(func() error {
			q := query
			q.Page = p
			page, err := s.core.ReportPage(gctx, token, q)
			if err != nil {
				return fmt.Errorf("page %d: %w", p, err)
			}
			pages[p-1] = page.Rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var rows []coreapi.Transaction
	for _, page := range pages {
		rows = append(rows, page...)
	}
	return rows, nil
}

// FilterByType keeps only rows of the selected type, preserving input order.
// An empty selection keeps everything.
func FilterByType(rows []coreapi.Transaction, txType coreapi.TransactionType) []coreapi.Transaction {
	if txType == "" {
		return rows
	}
	filtered := make([]coreapi.Transaction, 0, len(rows))
	for _, row := range rows {
		if row.Type == txType {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

// Export fetches a server-generated document for the range. The returned
// filename encodes scope and date range: <Scope>_<from>_<to>.<ext>.
func (s *Service) Export(ctx context.Context, token string, req Request, format Format) (coreapi.Export, string, error) {
	if err := s.check(req); err != nil {
		return coreapi.Export{}, "", err
	}

	query := coreapi.ReportQuery{Scope: req.Scope, From: req.From, To: req.To, Type: req.Type}
	key := flightKey("export:"+string(format), token, req)
	v, err, _ := s.flight.Do(key, func() (any, error) {
		if format == FormatExcel {
			return s.core.ExportReportExcel(ctx, token, query)
		}
		return s.core.ExportReportPDF(ctx, token, query)
	})
	if err != nil {
		return coreapi.Export{}, "", err
	}
	return v.(coreapi.Export), ExportFilename(req.Scope, req.From, req.To, format), nil
}

// ExportFilename builds the download name for an export document.
func ExportFilename(scope, from, to string, format Format) string {
	return fmt.Sprintf("%s_%s_%s.%s", scope, from, to, format.extension())
}

func flightKey(op, token string, req Request) string {
	return strings.Join([]string{op, token, req.Scope, req.From, req.To, req.Type}, "|")
}
