// Package parser maps raw feed items to normalized products.
package parser

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/aluiziolira/go-flashsale/models"
)

// maxEpochMillis bounds the representable calendar range (±100,000,000 days).
const maxEpochMillis = 8_640_000_000_000_000

const dazMallMarker = "DazMall"

type stringField struct {
	path string
	def  string
	set  func(p *models.Product, v string)
}

// stringFields is the declared text mapping from feed paths to product columns.
var stringFields = []stringField{
	{path: "itemId", set: func(p *models.Product, v string) { p.ItemID = v }},
	{path: "skuId", set: func(p *models.Product, v string) { p.SkuID = v }},
	{path: "itemTitle", set: func(p *models.Product, v string) { p.Title = v }},
	{path: "itemPrice.itemPrice", set: func(p *models.Product, v string) { p.OriginalPrice = v }},
	{path: "itemPrice.itemDiscountPrice", set: func(p *models.Product, v string) { p.DiscountPrice = v }},
	{path: "itemPrice.itemDiscount", set: func(p *models.Product, v string) { p.DiscountPercentage = v }},
	{path: "itemPrice.saved", set: func(p *models.Product, v string) { p.SavedAmount = v }},
	{path: "itemPrice.currency", set: func(p *models.Product, v string) { p.Currency = v }},
	{path: "itemMetric.itemRating", set: func(p *models.Product, v string) { p.Rating = v }},
	{path: "itemMetric.itemReviews", set: func(p *models.Product, v string) { p.Reviews = v }},
	{path: "itemSaleVolume.totalVolume", set: func(p *models.Product, v string) { p.TotalSales = v }},
	{path: "itemSaleVolume.itemSoldCnt", set: func(p *models.Product, v string) { p.ItemsSold = v }},
	{path: "itemSaleVolume.itemCurrentStock", set: func(p *models.Product, v string) { p.StockRemaining = v }},
	{path: "itemSaleVolume.itemTotalStock", set: func(p *models.Product, v string) { p.StockTotal = v }},
	{path: "seller.sellerId", set: func(p *models.Product, v string) { p.SellerID = v }},
	{path: "itemCategory.cateLeafId", set: func(p *models.Product, v string) { p.CategoryID = v }},
	{path: "itemImg", set: func(p *models.Product, v string) { p.ImageURL = v }},
}

// ExtractProducts normalizes every item of a run, keeping feed order.
func ExtractProducts(items []models.RawItem, runID uuid.UUID, scrapedAt time.Time) []models.Product {
	products := make([]models.Product, 0, len(items))
	for _, item := range items {
		products = append(products, ExtractProduct(item, runID, scrapedAt))
	}
	return products
}

// ExtractProduct maps one raw item. It never fails: anything missing or
// malformed takes the field's declared default.
func ExtractProduct(item models.RawItem, runID uuid.UUID, scrapedAt time.Time) models.Product {
	doc := gjson.ParseBytes(item)
	p := models.Product{
		RunID:      runID,
		ScrapeDate: scrapedAt.UTC(),
	}

	for _, f := range stringFields {
		f.set(&p, lookupString(doc, f.path).Or(f.def))
	}

	p.FreeShipping = lookupBool(doc, "itemBenefit.freeShipping").Or(false)
	p.IsDazMall = lookupContains(doc, "buType", dazMallMarker).Or(false)

	if u := lookupString(doc, "itemUrl"); u.Valid {
		p.ProductURL = "https:" + u.Value
	}

	p.SaleStart = EpochMillis(doc.Get("effectTime.startTime"))
	p.SaleEnd = EpochMillis(doc.Get("effectTime.endTime"))
	return p
}

// EpochMillis converts an epoch-millisecond value to a UTC time. Text values
// are read up to their first non-digit. It returns nil when the value is
// absent, has no leading integer or falls outside the calendar range.
func EpochMillis(r gjson.Result) *time.Time {
	if !present(r) {
		return nil
	}
	var text string
	switch r.Type {
	case gjson.String:
		text = r.Str
	case gjson.Number:
		text = formatNumber(r)
	default:
		return nil
	}

	ms, ok := leadingInt(text)
	if !ok || ms > maxEpochMillis || ms < -maxEpochMillis {
		return nil
	}
	t := time.UnixMilli(ms).UTC()
	return &t
}

func leadingInt(s string) (int64, bool) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
