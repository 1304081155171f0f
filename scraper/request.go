package scraper

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tidwall/sjson"

	"github.com/aluiziolira/go-flashsale/session"
)

const (
	recommendType = "pclp"
	backupParams  = "regionId,language,type,pageNo,buType,sellerId,bizCategoryId,childCampaignId"
)

type field struct {
	key   string
	value any
}

// pageParams builds the inner params document for one page. The field order
// is fixed so that identical inputs always sign identically.
func (f *Fetcher) pageParams(page int, streamID string) (string, error) {
	fields := []field{
		{"type", recommendType},
		{"isbackup", true},
		{"backupParams", backupParams},
		{"_input_charset", "UTF-8"},
		{"_output_charset", "UTF-8"},
		{"appVersion", "1"},
		{"flashsaleVersion", 3},
		{"language", f.cfg.Language},
		{"regionId", f.cfg.Region},
		{"platform", "pc"},
		{"pageNo", page},
	}
	if streamID != "" {
		fields = append(fields, field{"streamId", streamID})
	}

	doc := "{}"
	for _, fl := range fields {
		next, err := sjson.Set(doc, fl.key, fl.value)
		if err != nil {
			return "", fmt.Errorf("set param %s: %w", fl.key, err)
		}
		doc = next
	}
	return doc, nil
}

// requestData wraps the params document as a string inside the signed data payload.
func (f *Fetcher) requestData(page int, streamID string) (string, error) {
	params, err := f.pageParams(page, streamID)
	if err != nil {
		return "", err
	}
	data, err := sjson.Set("{}", "appId", f.cfg.AppID)
	if err != nil {
		return "", fmt.Errorf("set appId: %w", err)
	}
	data, err = sjson.Set(data, "params", params)
	if err != nil {
		return "", fmt.Errorf("set params: %w", err)
	}
	return data, nil
}

// pageURL returns the signed URL for one page request.
func (f *Fetcher) pageURL(creds *session.Credentials, page int, streamID string) (string, error) {
	data, err := f.requestData(page, streamID)
	if err != nil {
		return "", err
	}
	timestamp := strconv.FormatInt(f.now().UnixMilli(), 10)
	sign := session.Sign(creds.Get(session.TokenCookie), timestamp, f.cfg.AppKey, data)

	q := url.Values{}
	q.Set("jsv", f.cfg.JSVersion)
	q.Set("appKey", f.cfg.AppKey)
	q.Set("t", timestamp)
	q.Set("sign", sign)
	q.Set("api", f.cfg.API)
	q.Set("v", f.cfg.APIVersion)
	q.Set("type", "originaljson")
	q.Set("isSec", "1")
	q.Set("AntiCreep", "true")
	q.Set("timeout", strconv.FormatInt(f.cfg.Timeout.Milliseconds(), 10))
	q.Set("dataType", "json")
	q.Set("sessionOption", "AutoLoginOnly")
	q.Set("x-i18n-language", f.cfg.Language)
	q.Set("x-i18n-regionID", f.cfg.Region)
	q.Set("isIcmsMtop", "true")
	q.Set("parallel", "true")
	q.Set("data", data)

	base, err := url.Parse(f.cfg.BaseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	base.RawQuery = q.Encode()
	return base.String(), nil
}

func (f *Fetcher) headers(creds *session.Credentials) http.Header {
	hdr := http.Header{}
	hdr.Set("Accept", "application/json")
	hdr.Set("Accept-Language", "en-US,en;q=0.9")
	hdr.Set("Content-Type", "application/x-www-form-urlencoded")
	hdr.Set("Origin", f.cfg.Origin)
	hdr.Set("Referer", f.cfg.Origin+"/")
	hdr.Set("User-Agent", f.cfg.UserAgent)
	hdr.Set("X-I18n-Language", f.cfg.Language)
	hdr.Set("X-I18n-Regionid", f.cfg.Region)
	hdr.Set("Cookie", creds.Header())
	return hdr
}
