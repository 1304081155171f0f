package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aluiziolira/go-flashsale/models"
)

const (
	// DefaultHistoryLimit is the number of runs returned by ListRuns when no limit is given.
	DefaultHistoryLimit = 50

	// insertBatchSize is the maximum number of rows per INSERT statement.
	insertBatchSize = 50

	topSellerLimit = 10
)

// productInsertColumns are written on insert; id and created_at come from the database.
var productInsertColumns = []string{
	"run_id", "scrape_date", "item_id", "sku_id", "title",
	"original_price", "discount_price", "discount_percentage", "saved_amount", "currency",
	"rating", "reviews", "total_sales", "items_sold", "stock_remaining", "stock_total",
	"free_shipping", "is_dazmall", "seller_id", "category_id", "image_url", "product_url",
	"sale_start", "sale_end",
}

var productSelect = "SELECT " + strings.Join(models.Product{}.Columns(), ", ") + " FROM flash_sale_products"

// RunStore reads and writes scrape runs and their products.
type RunStore struct {
	db *sqlx.DB
}

// NewRunStore wraps an open database handle.
func NewRunStore(db *sqlx.DB) *RunStore {
	return &RunStore{db: db}
}

// SaveRun stores the run summary and all of its products in one transaction.
func (s *RunStore) SaveRun(ctx context.Context, run models.Run, products []models.Product) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO scraping_runs (id, run_date, product_count, pages_scraped, time_taken)
		VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.RunDate, run.ProductCount, run.PagesScraped, run.TimeTaken,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for start := 0; start < len(products); start += insertBatchSize {
		end := min(start+insertBatchSize, len(products))
		if err := batchInsertProducts(ctx, tx, products[start:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// batchInsertProducts builds and executes a single INSERT statement with multiple value tuples.
func batchInsertProducts(ctx context.Context, tx *sqlx.Tx, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	cols := len(productInsertColumns)
	args := make([]any, 0, len(products)*cols)
	var sb strings.Builder

	sb.WriteString("INSERT INTO flash_sale_products (")
	sb.WriteString(strings.Join(productInsertColumns, ", "))
	sb.WriteString(") VALUES ")

	for i := range products {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeValueTuple(&sb, i*cols, cols)

		p := &products[i]
		args = append(args,
			p.RunID, p.ScrapeDate, p.ItemID, p.SkuID, p.Title,
			p.OriginalPrice, p.DiscountPrice, p.DiscountPercentage, p.SavedAmount, p.Currency,
			p.Rating, p.Reviews, p.TotalSales, p.ItemsSold, p.StockRemaining, p.StockTotal,
			p.FreeShipping, p.IsDazMall, p.SellerID, p.CategoryID, p.ImageURL, p.ProductURL,
			p.SaleStart, p.SaleEnd,
		)
	}

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("exec batch insert: %w", err)
	}
	return nil
}

// writeValueTuple writes "($n, $n+1, ...)" for one row starting after offset.
func writeValueTuple(sb *strings.Builder, offset, cols int) {
	sb.WriteByte('(')
	for c := 1; c <= cols; c++ {
		if c > 1 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(sb, "$%d", offset+c)
	}
	sb.WriteByte(')')
}

// ListRuns returns the newest runs first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]models.Run, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	runs := []models.Run{}
	err := s.db.SelectContext(ctx, &runs,
		`SELECT id, run_date, product_count, pages_scraped, time_taken
		FROM scraping_runs ORDER BY run_date DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// ProductsByRun returns a run's products in insertion order.
func (s *RunStore) ProductsByRun(ctx context.Context, runID uuid.UUID) ([]models.Product, error) {
	products := []models.Product{}
	if err := s.db.SelectContext(ctx, &products, productSelect+" WHERE run_id = $1 ORDER BY id", runID); err != nil {
		return nil, fmt.Errorf("select products for run %s: %w", runID, err)
	}
	return products, nil
}

// LatestRunID returns the most recent run id, or ErrRunNotFound when no run exists.
func (s *RunStore) LatestRunID(ctx context.Context) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.GetContext(ctx, &id, "SELECT id FROM scraping_runs ORDER BY run_date DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return uuid.Nil, ErrRunNotFound
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("select latest run: %w", err)
	}
	return id, nil
}

// AllProducts returns every stored product, newest scrape first.
func (s *RunStore) AllProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	if err := s.db.SelectContext(ctx, &products, productSelect+" ORDER BY scrape_date DESC, id"); err != nil {
		return nil, fmt.Errorf("select all products: %w", err)
	}
	return products, nil
}

// Analytics aggregates prices and discounts over every product with a
// discount price and ranks the ten best sellers by the digits of total_sales.
func (s *RunStore) Analytics(ctx context.Context) (*models.Analytics, error) {
	var stats struct {
		TotalProducts int             `db:"total_products"`
		AvgPrice      sql.NullFloat64 `db:"avg_price"`
		AvgDiscount   sql.NullFloat64 `db:"avg_discount"`
	}
	err := s.db.GetContext(ctx, &stats, `
		SELECT
			COUNT(*) AS total_products,
			AVG(NULLIF(REGEXP_REPLACE(discount_price, '[^0-9.]', '', 'g'), '')::NUMERIC) AS avg_price,
			AVG(NULLIF(REGEXP_REPLACE(discount_percentage, '[^0-9.]', '', 'g'), '')::NUMERIC) AS avg_discount
		FROM flash_sale_products
		WHERE discount_price IS NOT NULL AND discount_price != ''`)
	if err != nil {
		return nil, fmt.Errorf("select product stats: %w", err)
	}

	var totalRuns int
	if err := s.db.GetContext(ctx, &totalRuns, "SELECT COUNT(*) FROM scraping_runs"); err != nil {
		return nil, fmt.Errorf("count runs: %w", err)
	}

	topSellers := []models.TopSeller{}
	err = s.db.SelectContext(ctx, &topSellers, `
		SELECT title, total_sales, discount_price, discount_percentage
		FROM flash_sale_products
		WHERE total_sales IS NOT NULL
			AND total_sales != ''
			AND REGEXP_REPLACE(total_sales, '[^0-9]', '', 'g') != ''
		ORDER BY NULLIF(REGEXP_REPLACE(total_sales, '[^0-9]', '', 'g'), '')::BIGINT DESC
		LIMIT $1`, topSellerLimit)
	if err != nil {
		return nil, fmt.Errorf("select top sellers: %w", err)
	}

	return &models.Analytics{
		TotalProducts: stats.TotalProducts,
		AvgPrice:      stats.AvgPrice.Float64,
		AvgDiscount:   stats.AvgDiscount.Float64,
		TotalRuns:     totalRuns,
		TopSellers:    topSellers,
	}, nil
}

// DeleteRun removes a run and its products in one transaction and reports
// how many products were deleted.
func (s *RunStore) DeleteRun(ctx context.Context, runID uuid.UUID) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, "DELETE FROM flash_sale_products WHERE run_id = $1", runID)
	if err != nil {
		return 0, fmt.Errorf("delete products: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("products rows affected: %w", err)
	}

	res, err = tx.ExecContext(ctx, "DELETE FROM scraping_runs WHERE id = $1", runID)
	if err != nil {
		return 0, fmt.Errorf("delete run: %w", err)
	}
	runs, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("run rows affected: %w", err)
	}
	if runs == 0 {
		return 0, ErrRunNotFound
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}
	return deleted, nil
}
