package aggregate

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"
	"time"

	"github.com/geo-visualizer/backend/internal/classify"
	"github.com/geo-visualizer/backend/internal/models"
	"github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"
)

// DuckOptions tunes the DuckDB analytics store.
type DuckOptions struct {
	MemoryLimit   string
	Threads       int
	MaxConcurrent int
}

// DefaultDuckOptions returns the settings used when nothing is configured.
func DefaultDuckOptions() DuckOptions {
	return DuckOptions{MemoryLimit: "1GB", Threads: 4, MaxConcurrent: 3}
}

// DuckAggregator answers classification queries with SQL over a DuckDB table
// holding one row per (layer, feature, field).
type DuckAggregator struct {
	db   *sql.DB
	path string
	log  *zap.Logger

	// writes replace a whole column, serialize them
	writeMu sync.Mutex

	// limits concurrent analytical queries
	querySem chan struct{}
}

// NewDuckAggregator opens or creates the analytics database at path. An
// empty path opens an in-memory database.
func NewDuckAggregator(path string, opts DuckOptions, log *zap.Logger) (*DuckAggregator, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	log = log.With(zap.String("component", "duckdb"), zap.String("path", path))

	connector, err := duckdb.NewConnector(path, func(execer driver.ExecerContext) error {
		pragmas := []string{"PRAGMA enable_progress_bar=false"}
		if opts.MemoryLimit != "" {
			pragmas = append(pragmas, fmt.Sprintf("PRAGMA memory_limit='%s'", opts.MemoryLimit))
		}
		if opts.Threads > 0 {
			pragmas = append(pragmas, fmt.Sprintf("PRAGMA threads=%d", opts.Threads))
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return fmt.Errorf("%s: %w", pragma, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS feature_values (
			layer_id   VARCHAR NOT NULL,
			feature_id VARCHAR NOT NULL,
			field      VARCHAR NOT NULL,
			value      DOUBLE
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	log.Info("analytics store ready")
	return &DuckAggregator{
		db:       db,
		path:     path,
		log:      log,
		querySem: make(chan struct{}, opts.MaxConcurrent),
	}, nil
}

// Load replaces the values of field on layerID. The delete and the rows
// written through the DuckDB Appender share one transaction, so readers see
// either the old column or the new one.
func (d *DuckAggregator) Load(ctx context.Context, layerID, field string, values []models.FeatureValue) (err error) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	start := time.Now()
	conn, err := d.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer conn.Close()

	if _, err := conn.ExecContext(ctx, "BEGIN TRANSACTION"); err != nil {
		return fmt.Errorf("failed to begin load: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		if _, rbErr := conn.ExecContext(context.Background(), "ROLLBACK"); rbErr != nil {
			d.log.Error("rollback failed",
				zap.String("layer", layerID), zap.String("field", field), zap.Error(rbErr))
		}
	}()

	if _, err := conn.ExecContext(ctx, "DELETE FROM feature_values WHERE layer_id = ? AND field = ?", layerID, field); err != nil {
		return fmt.Errorf("failed to clear %s/%s: %w", layerID, field, err)
	}

	err = conn.Raw(func(driverConn any) error {
		dConn, ok := driverConn.(*duckdb.Conn)
		if !ok {
			return fmt.Errorf("failed to cast to duckdb.Conn")
		}
		appender, err := duckdb.NewAppenderFromConn(dConn, "", "feature_values")
		if err != nil {
			return fmt.Errorf("failed to create appender: %w", err)
		}

		seen := make(map[string]struct{}, len(values))
		for i, v := range values {
			if _, dup := seen[v.FeatureID]; dup {
				appender.Close()
				return fmt.Errorf("row %d: %w: %q", i, ErrDuplicateFeature, v.FeatureID)
			}
			seen[v.FeatureID] = struct{}{}

			var value driver.Value
			if v.Value != nil {
				value = *v.Value
			}
			if err := appender.AppendRow(layerID, v.FeatureID, field, value); err != nil {
				appender.Close()
				return fmt.Errorf("failed to append row %d: %w", i, err)
			}
		}
		// Close flushes the pending rows into the open transaction.
		return appender.Close()
	})
	if err != nil {
		return fmt.Errorf("appender error: %w", err)
	}

	if _, err = conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit load: %w", err)
	}

	d.log.Info("loaded field values",
		zap.String("layer", layerID), zap.String("field", field),
		zap.Int("rows", len(values)), zap.Duration("elapsed", time.Since(start)))
	return nil
}

func (d *DuckAggregator) acquire(ctx context.Context) (func(), error) {
	select {
	case d.querySem <- struct{}{}:
		return func() { <-d.querySem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (d *DuckAggregator) extent(ctx context.Context, query, layerID, field string) (classify.Extent, error) {
	release, err := d.acquire(ctx)
	if err != nil {
		return classify.Extent{}, err
	}
	defer release()

	var (
		ext      classify.Extent
		count    int64
		min, max sql.NullFloat64
	)
	if err := d.db.QueryRowContext(ctx, query, layerID, field).Scan(&ext.HasNull, &count, &min, &max); err != nil {
		return classify.Extent{}, err
	}
	if count > 0 && min.Valid && max.Valid {
		ext.Valid, ext.Min, ext.Max = true, min.Float64, max.Float64
	}
	return ext, nil
}

func (d *DuckAggregator) MinMax(ctx context.Context, layerID, field string) (classify.Extent, error) {
	return d.extent(ctx, `
		SELECT COALESCE(bool_or(value IS NULL), false), COUNT(value), MIN(value), MAX(value)
		FROM feature_values
		WHERE layer_id = ? AND field = ?
	`, layerID, field)
}

func (d *DuckAggregator) PositiveMinMax(ctx context.Context, layerID, field string) (classify.Extent, error) {
	return d.extent(ctx, `
		SELECT COALESCE(bool_or(value IS NULL), false),
			COUNT(value) FILTER (WHERE value > 0),
			MIN(value) FILTER (WHERE value > 0),
			MAX(value) FILTER (WHERE value > 0)
		FROM feature_values
		WHERE layer_id = ? AND field = ?
	`, layerID, field)
}

func (d *DuckAggregator) QuantilePartitions(ctx context.Context, layerID, field string, k int) ([]classify.Partition, error) {
	if k < 1 {
		return nil, nil
	}
	release, err := d.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	// NTILE takes a constant bucket count
	query := fmt.Sprintf(`
		SELECT MIN(value), MAX(value)
		FROM (
			SELECT value, NTILE(%d) OVER (ORDER BY value) AS bucket
			FROM feature_values
			WHERE layer_id = ? AND field = ? AND value IS NOT NULL
		)
		GROUP BY bucket
		ORDER BY bucket
	`, k)
	rows, err := d.db.QueryContext(ctx, query, layerID, field)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parts []classify.Partition
	for rows.Next() {
		var p classify.Partition
		if err := rows.Scan(&p.Min, &p.Max); err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

func (d *DuckAggregator) JenksClusters(ctx context.Context, layerID, field string, k int) ([]classify.Partition, error) {
	values, err := d.values(ctx, layerID, field)
	if err != nil {
		return nil, err
	}
	return Cluster1D(values, k), nil
}

// values returns the non-null values of field in increasing order.
func (d *DuckAggregator) values(ctx context.Context, layerID, field string) ([]float64, error) {
	release, err := d.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	rows, err := d.db.QueryContext(ctx, `
		SELECT value
		FROM feature_values
		WHERE layer_id = ? AND field = ? AND value IS NOT NULL
		ORDER BY value
	`, layerID, field)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

// DeleteLayer removes every value of layerID.
func (d *DuckAggregator) DeleteLayer(ctx context.Context, layerID string) error {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()
	if _, err := d.db.ExecContext(ctx, "DELETE FROM feature_values WHERE layer_id = ?", layerID); err != nil {
		return fmt.Errorf("failed to delete layer %s: %w", layerID, err)
	}
	return nil
}

// Close closes the database.
func (d *DuckAggregator) Close() error {
	return d.db.Close()
}

var _ Store = (*DuckAggregator)(nil)
