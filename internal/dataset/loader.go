package dataset

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"churndash/adapters/datareadiness/coercer"
	"churndash/domain/churn"
	"churndash/internal"
	"churndash/internal/errors"
	"churndash/internal/metrics"
	"churndash/ports"

	"golang.org/x/sync/singleflight"
)

// LoadResult is the memoized outcome of loading one source
type LoadResult struct {
	Table    *churn.Table
	Err      error
	Source   string
	LoadedAt time.Time
	Duration time.Duration
}

// OK reports a usable, non-empty table
func (r *LoadResult) OK() bool {
	return r != nil && r.Err == nil && !r.Table.IsEmpty()
}

// Cancelled reports a load abandoned because its context ended
func (r *LoadResult) Cancelled() bool {
	return r != nil && isCancellation(r.Err)
}

// Loader reads, coerces and memoizes datasets for the process lifetime.
// Concurrent first loads of the same path share a single read.
type Loader struct {
	source  ports.TableSource
	coercer *coercer.TypeCoercer
	logger  *internal.Logger
	metrics *metrics.Recorder

	mu    sync.RWMutex
	cache map[string]*LoadResult
	group singleflight.Group
	reads atomic.Int64
}

// NewLoader creates a loader over the given source
func NewLoader(source ports.TableSource, typeCoercer *coercer.TypeCoercer, logger *internal.Logger, recorder *metrics.Recorder) *Loader {
	if typeCoercer == nil {
		typeCoercer = coercer.NewTypeCoercer(coercer.DefaultCoercionConfig())
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Loader{
		source:  source,
		coercer: typeCoercer,
		logger:  logger.Named("loader"),
		metrics: recorder,
		cache:   make(map[string]*LoadResult),
	}
}

// Load returns the table for path, reading the source only the first time.
// Failed loads are memoized too. A caller whose ctx ends gets a cancelled
// result that is not memoized; the shared read keeps going for the others.
func (l *Loader) Load(ctx context.Context, path string) *LoadResult {
	if cached, ok := l.cached(path); ok {
		return cached
	}
	if err := ctx.Err(); err != nil {
		return cancelled(path, err)
	}

	ch := l.group.DoChan(path, func() (interface{}, error) {
		if cached, ok := l.cached(path); ok {
			return cached, nil
		}
		// detached so one caller going away does not fail everyone sharing the read
		result := l.load(context.WithoutCancel(ctx), path)
		if !isCancellation(result.Err) {
			l.mu.Lock()
			l.cache[path] = result
			l.mu.Unlock()
		}
		return result, nil
	})

	select {
	case res := <-ch:
		return res.Val.(*LoadResult)
	case <-ctx.Done():
		l.logger.Debug("load of %s abandoned by caller: %v", path, ctx.Err())
		return cancelled(path, ctx.Err())
	}
}

func cancelled(path string, err error) *LoadResult {
	return &LoadResult{Table: churn.EmptyTable(), Err: err, Source: path, LoadedAt: time.Now()}
}

// Forget drops the memoized result for path so the next Load re-reads it
func (l *Loader) Forget(path string) {
	l.mu.Lock()
	delete(l.cache, path)
	l.mu.Unlock()
}

// Reads returns how many times the underlying source has been read
func (l *Loader) Reads() int64 {
	return l.reads.Load()
}

func (l *Loader) cached(path string) (*LoadResult, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	r, ok := l.cache[path]
	return r, ok
}

func (l *Loader) load(ctx context.Context, path string) *LoadResult {
	start := time.Now()
	l.reads.Add(1)

	result := &LoadResult{Source: path, LoadedAt: start}
	raw, err := l.source.Read(ctx, path)
	if err == nil {
		result.Table, err = l.Build(raw)
	}
	result.Duration = time.Since(start)

	if err != nil {
		result.Table = churn.EmptyTable()
		if isCancellation(err) {
			result.Err = err
		} else {
			result.Err = errors.LoadError(path, err)
		}
		l.logger.Error("dataset load failed: %v", result.Err)
	} else {
		l.logger.Info("dataset loaded from %s: %d rows, columns %v (%s)",
			path, result.Table.Len(), result.Table.Columns(), result.Duration)
		for _, w := range result.Table.Warnings() {
			l.logger.Warn("%s", w)
		}
	}
	l.metrics.ObserveLoad(result.Err == nil, result.Duration)
	return result
}

// Build coerces a raw table into a churn table. Cell-level problems never
// abort the build; only a table without data rows is an error.
func (l *Loader) Build(raw *ports.RawTable) (*churn.Table, error) {
	if raw == nil || len(raw.Headers) == 0 {
		return nil, fmt.Errorf("source has no header row")
	}
	if len(raw.Rows) == 0 {
		return nil, fmt.Errorf("source has no data rows")
	}

	warnings := append([]string(nil), raw.Warnings...)
	index := make(map[churn.Column]int)
	var columns []churn.Column
	for i, header := range raw.Headers {
		col, ok := churn.ResolveColumn(header)
		if !ok {
			continue
		}
		if _, dup := index[col]; dup {
			warnings = append(warnings, fmt.Sprintf("duplicate column %q ignored", header))
			continue
		}
		index[col] = i
		columns = append(columns, col)
	}
	if len(columns) == 0 {
		warnings = append(warnings, "no recognised columns in source header")
	}

	unparsed := make(map[churn.Column]int)
	negativeTenure := 0
	records := make([]churn.CustomerRecord, 0, len(raw.Rows))
	for _, row := range raw.Rows {
		cell := func(c churn.Column) (string, bool) {
			i, ok := index[c]
			if !ok || i >= len(row) {
				return "", false
			}
			return row[i], true
		}
		number := func(c churn.Column) churn.Number {
			s, ok := cell(c)
			if !ok {
				return churn.Number{}
			}
			n := l.coercer.CoerceNumber(s)
			if !n.Valid && l.coercer.CoerceText(s) != "" {
				unparsed[c]++
			}
			return n
		}
		flag := func(c churn.Column) churn.Flag {
			s, _ := cell(c)
			return l.coercer.CoerceFlag(s)
		}
		text := func(c churn.Column) string {
			s, _ := cell(c)
			return l.coercer.CoerceText(s)
		}

		rec := churn.CustomerRecord{
			CustomerID:     text(churn.ColCustomerID),
			Gender:         text(churn.ColGender),
			Dependents:     flag(churn.ColDependents),
			MultipleLines:  text(churn.ColMultipleLines),
			Contract:       text(churn.ColContract),
			PaymentMethod:  text(churn.ColPaymentMethod),
			Tenure:         number(churn.ColTenure),
			MonthlyCharges: number(churn.ColMonthlyCharges),
			TotalCharges:   number(churn.ColTotalCharges),
			Churn:          flag(churn.ColChurn),
		}
		if rec.Tenure.Valid && rec.Tenure.Value < 0 {
			rec.Tenure = churn.Number{}
			negativeTenure++
		}
		records = append(records, rec)
	}

	for _, c := range columns {
		if n := unparsed[c]; n > 0 {
			warnings = append(warnings, fmt.Sprintf("%s: %d values could not be parsed as numbers and are treated as missing", c, n))
		}
	}
	if negativeTenure > 0 {
		warnings = append(warnings, fmt.Sprintf("%s: %d negative values treated as missing", churn.ColTenure, negativeTenure))
	}

	return churn.NewTable(columns, records, warnings...), nil
}

func isCancellation(err error) bool {
	return stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded)
}
