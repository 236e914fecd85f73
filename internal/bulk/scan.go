package bulk

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spegfinder/clearview/internal/model"
	"github.com/spegfinder/clearview/internal/statement"
)

// Scanner walks a directory of extracted accounts files and parses them with
// a bounded worker pool. Each parse is a pure function of the file bytes;
// the only shared state is the result accumulator, which a single collector
// goroutine owns.
type Scanner struct {
	Taxonomy *model.Taxonomy
	Workers  int
	// MinFileBytes filters out readmes and index stubs.
	MinFileBytes int64
}

// ScanResult accumulates per-company candidate records and batch counters.
type ScanResult struct {
	// Records maps company number to all candidate period records found
	// across that company's filings.
	Records map[string][]*model.PeriodRecord

	FilesScanned   int
	FilesParsed    int
	Unidentifiable int
	Failed         int
	Elapsed        time.Duration
}

// accountExtensions are the file types that can hold iXBRL accounts.
var accountExtensions = map[string]bool{
	".html":  true,
	".htm":   true,
	".xml":   true,
	".xhtml": true,
}

// fileOutcome is one worker's result for one document.
type fileOutcome struct {
	company string
	records []*model.PeriodRecord
	status  outcomeStatus
}

type outcomeStatus int

const (
	outcomeParsed outcomeStatus = iota
	outcomeUnidentifiable
	outcomeFailed
	outcomeEmpty
)

// Run scans dir recursively and returns the merged result. Cancellation is
// checked between documents; one document is bounded and fast, so there is
// no mid-document cancel.
func (s *Scanner) Run(ctx context.Context, dir string) (*ScanResult, error) {
	if s.Taxonomy == nil {
		return nil, eris.New("bulk: no taxonomy configured")
	}
	workers := s.Workers
	if workers <= 0 {
		workers = 8
	}
	minBytes := s.MinFileBytes
	if minBytes <= 0 {
		minBytes = 500
	}

	files, err := findAccountFiles(dir, minBytes)
	if err != nil {
		return nil, err
	}

	zap.L().Info("bulk scan starting",
		zap.String("dir", dir),
		zap.Int("files", len(files)),
		zap.Int("workers", workers),
	)

	start := time.Now()
	result := &ScanResult{
		Records:      make(map[string][]*model.PeriodRecord),
		FilesScanned: len(files),
	}

	outcomes := make(chan fileOutcome, workers)
	collectorDone := make(chan struct{})

	// Single-threaded reducer stage: workers never touch the map.
	go func() {
		defer close(collectorDone)
		for o := range outcomes {
			switch o.status {
			case outcomeParsed:
				result.FilesParsed++
				result.Records[o.company] = append(result.Records[o.company], o.records...)
			case outcomeUnidentifiable:
				result.Unidentifiable++
			case outcomeFailed:
				result.Failed++
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, path := range files {
		if err := gctx.Err(); err != nil {
			break
		}
		path := path
		g.Go(func() error {
			outcomes <- s.parseFile(path)
			return nil
		})
	}

	err = g.Wait()
	close(outcomes)
	<-collectorDone

	result.Elapsed = time.Since(start)
	zap.L().Info("bulk scan complete",
		zap.Int("parsed", result.FilesParsed),
		zap.Int("unidentifiable", result.Unidentifiable),
		zap.Int("failed", result.Failed),
		zap.Int("companies", len(result.Records)),
		zap.Duration("elapsed", result.Elapsed),
	)

	if err != nil {
		return result, eris.Wrap(err, "bulk: scan")
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return result, eris.Wrap(ctxErr, "bulk: scan cancelled")
	}
	return result, nil
}

// parseFile reads and parses one document. All failures are contained here:
// a bad file yields a counted outcome, never an error that stops the batch.
func (s *Scanner) parseFile(path string) fileOutcome {
	content, err := os.ReadFile(path)
	if err != nil {
		zap.L().Debug("bulk: unreadable file", zap.String("path", path), zap.Error(err))
		return fileOutcome{status: outcomeFailed}
	}

	company, ok := IdentifyCompany(path, content)
	if !ok {
		return fileOutcome{status: outcomeUnidentifiable}
	}

	records, err := statement.ExtractDocument(content, "", s.Taxonomy)
	if err != nil {
		zap.L().Debug("bulk: parse failed", zap.String("path", path), zap.Error(err))
		return fileOutcome{status: outcomeFailed}
	}
	if len(records) == 0 {
		return fileOutcome{status: outcomeEmpty}
	}

	for _, r := range records {
		r.CompanyNumber = company
	}
	return fileOutcome{company: company, records: records, status: outcomeParsed}
}

// findAccountFiles walks dir collecting account-like files above the size
// floor.
func findAccountFiles(dir string, minBytes int64) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !accountExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		info, err := d.Info()
		if err != nil || info.Size() < minBytes {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, eris.Wrapf(err, "bulk: walk %s", dir)
	}
	return files, nil
}

// ReduceAll reduces every company's candidates into a final series.
func ReduceAll(result *ScanResult) map[string]model.FinancialSeries {
	series := make(map[string]model.FinancialSeries, len(result.Records))
	for company, candidates := range result.Records {
		if reduced := statement.Reduce(candidates); len(reduced) > 0 {
			series[company] = reduced
		}
	}
	return series
}
