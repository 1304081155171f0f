package models

import (
	"time"

	"github.com/google/uuid"
)

// Product is the normalized, default-filled record for one catalog item.
type Product struct {
	ID                 int64      `db:"id"                  json:"id"`
	RunID              uuid.UUID  `db:"run_id"              json:"run_id"`
	ScrapeDate         time.Time  `db:"scrape_date"         json:"scrape_date"`
	ItemID             string     `db:"item_id"             json:"item_id"`
	SkuID              string     `db:"sku_id"              json:"sku_id"`
	Title              string     `db:"title"               json:"title"`
	OriginalPrice      string     `db:"original_price"      json:"original_price"`
	DiscountPrice      string     `db:"discount_price"      json:"discount_price"`
	DiscountPercentage string     `db:"discount_percentage" json:"discount_percentage"`
	SavedAmount        string     `db:"saved_amount"        json:"saved_amount"`
	Currency           string     `db:"currency"            json:"currency"`
	Rating             string     `db:"rating"              json:"rating"`
	Reviews            string     `db:"reviews"             json:"reviews"`
	TotalSales         string     `db:"total_sales"         json:"total_sales"`
	ItemsSold          string     `db:"items_sold"          json:"items_sold"`
	StockRemaining     string     `db:"stock_remaining"     json:"stock_remaining"`
	StockTotal         string     `db:"stock_total"         json:"stock_total"`
	FreeShipping       bool       `db:"free_shipping"       json:"free_shipping"`
	IsDazMall          bool       `db:"is_dazmall"          json:"is_dazmall"`
	SellerID           string     `db:"seller_id"           json:"seller_id"`
	CategoryID         string     `db:"category_id"         json:"category_id"`
	ImageURL           string     `db:"image_url"           json:"image_url"`
	ProductURL         string     `db:"product_url"         json:"product_url"`
	SaleStart          *time.Time `db:"sale_start"          json:"sale_start"`
	SaleEnd            *time.Time `db:"sale_end"            json:"sale_end"`
	CreatedAt          time.Time  `db:"created_at"          json:"created_at"`
}

var productColumns = []string{
	"id", "run_id", "scrape_date", "item_id", "sku_id", "title",
	"original_price", "discount_price", "discount_percentage", "saved_amount", "currency",
	"rating", "reviews", "total_sales", "items_sold", "stock_remaining", "stock_total",
	"free_shipping", "is_dazmall", "seller_id", "category_id", "image_url", "product_url",
	"sale_start", "sale_end", "created_at",
}

// Columns lists the export header in table order.
func (p Product) Columns() []string {
	return productColumns
}

// Values returns the export row in Columns order. Nil sale times stay nil.
func (p Product) Values() []any {
	return []any{
		p.ID, p.RunID.String(), p.ScrapeDate, p.ItemID, p.SkuID, p.Title,
		p.OriginalPrice, p.DiscountPrice, p.DiscountPercentage, p.SavedAmount, p.Currency,
		p.Rating, p.Reviews, p.TotalSales, p.ItemsSold, p.StockRemaining, p.StockTotal,
		p.FreeShipping, p.IsDazMall, p.SellerID, p.CategoryID, p.ImageURL, p.ProductURL,
		p.SaleStart, p.SaleEnd, p.CreatedAt,
	}
}
