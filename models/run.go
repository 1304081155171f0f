package models

import (
	"time"

	"github.com/google/uuid"
)

// Run is one persisted scrape invocation.
type Run struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	RunDate      time.Time `db:"run_date"      json:"run_date"`
	ProductCount int       `db:"product_count" json:"product_count"`
	PagesScraped int       `db:"pages_scraped" json:"pages_scraped"`
	TimeTaken    int       `db:"time_taken"    json:"time_taken"`
}

// RunReport is returned to the caller of a scrape.
type RunReport struct {
	RunID         uuid.UUID `json:"run_id"`
	TotalProducts int       `json:"total_products"`
	PagesScraped  int       `json:"pages_scraped"`
	TimeTaken     int       `json:"time_taken"`
}

// TopSeller is one row of the best-selling products table.
type TopSeller struct {
	Title              string `db:"title"               json:"title"`
	TotalSales         string `db:"total_sales"         json:"total_sales"`
	DiscountPrice      string `db:"discount_price"      json:"discount_price"`
	DiscountPercentage string `db:"discount_percentage" json:"discount_percentage"`
}

// Analytics aggregates every stored product.
type Analytics struct {
	TotalProducts int         `json:"total_products"`
	AvgPrice      float64     `json:"avg_price"`
	AvgDiscount   float64     `json:"avg_discount"`
	TotalRuns     int         `json:"total_runs"`
	TopSellers    []TopSeller `json:"top_sellers"`
}
