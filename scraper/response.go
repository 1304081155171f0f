package scraper

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/aluiziolira/go-flashsale/models"
)

const successMarker = "SUCCESS"

// decodePage reads the status marker, the item list, the end flag and the
// continuation token from a feed response. Missing paths yield zero values.
func decodePage(body []byte) *models.Page {
	page := &models.Page{}
	if !gjson.ValidBytes(body) {
		return page
	}
	root := gjson.ParseBytes(body)
	page.Status = root.Get("ret.0").String()

	result := root.Get("data.result.0")
	page.EndPage = result.Get("endPage").Bool()
	page.StreamID = result.Get("streamId").String()

	items := result.Get("data.items")
	if items.IsArray() {
		for _, item := range items.Array() {
			page.Items = append(page.Items, json.RawMessage(item.Raw))
		}
	}
	return page
}

func succeeded(page *models.Page) bool {
	return strings.Contains(page.Status, successMarker)
}
