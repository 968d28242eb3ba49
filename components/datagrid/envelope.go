package datagrid

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"
)

// Envelope extraction is an ordered contract: strategies are tried top to bottom and
// the first that recognizes the payload wins.
//
//  1. nested      {data: {data: [...], current_page, per_page, total, last_page}}
//  2. meta        {data: [...], meta: {...}}
//  3. pagination  {data: [...], pagination: {...}}
//  4. flat        {data: [...], current_page, total, ...}
//  5. array       [...]
//
// The meta and pagination strategies only match when their map carries at least
// one pagination key. Whatever strategy located the rows, each pagination field is
// then read from the known locations in order: data (when it is an object),
// meta, pagination, top level. The first location holding the field wins.
//
// A payload none of them recognize yields EmptyResult and ErrMalformedResponse.
var envelopeStrategies = []EnvelopeStrategy{
	{Name: "nested", Extract: extractNested},
	{Name: "meta", Extract: extractSibling("meta")},
	{Name: "pagination", Extract: extractSibling("pagination")},
	{Name: "flat", Extract: extractFlat},
	{Name: "array", Extract: extractArray},
}

var (
	currentPageKeys = []string{"current_page", "page", "currentPage"}
	perPageKeys     = []string{"per_page", "perPage", "limit"}
	totalKeys       = []string{"total", "total_count", "totalCount"}
	lastPageKeys    = []string{"last_page", "total_pages", "lastPage", "totalPages"}

	paginationKeys = [][]string{currentPageKeys, perPageKeys, totalKeys, lastPageKeys}
)

// EnvelopeStrategy recognizes one envelope shape. Extract returns the row slice and
// the map holding pagination info (nil when the shape carries none).
type EnvelopeStrategy struct {
	Name    string
	Extract func(doc any) (rows []any, pagination map[string]any, ok bool)
}

// EnvelopeStrategies returns the strategies in precedence order.
func EnvelopeStrategies() []EnvelopeStrategy {
	return append([]EnvelopeStrategy(nil), envelopeStrategies...)
}

// ExtractListResult normalizes a list response body. perPage is the requested page
// size, used when the envelope does not echo one back. The returned strategy name is
// empty when nothing matched.
func ExtractListResult(body []byte, perPage int) (ListResult, string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return EmptyResult(), "", fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	var doc any
	if err := json.Unmarshal(body, &doc); err != nil {
		return EmptyResult(), "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	for _, strategy := range envelopeStrategies {
		rows, _, ok := strategy.Extract(doc)
		if !ok {
			continue
		}
		return normalizeResult(rows, paginationSources(doc), perPage), strategy.Name, nil
	}
	return EmptyResult(), "", fmt.Errorf("%w: no envelope strategy matched", ErrMalformedResponse)
}

// ExtractRecord pulls a single record out of {data: {...}} or a bare object.
func ExtractRecord(body []byte) (Row, error) {
	var doc map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if inner, ok := doc["data"].(map[string]any); ok {
		return Row(inner), nil
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: null record", ErrMalformedResponse)
	}
	return Row(doc), nil
}

func extractNested(doc any) ([]any, map[string]any, bool) {
	outer, ok := doc.(map[string]any)
	if !ok {
		return nil, nil, false
	}
	inner, ok := outer["data"].(map[string]any)
	if !ok {
		return nil, nil, false
	}
	rows, ok := inner["data"].([]any)
	if !ok {
		return nil, nil, false
	}
	return rows, inner, true
}

func extractSibling(key string) func(doc any) ([]any, map[string]any, bool) {
	return func(doc any) ([]any, map[string]any, bool) {
		outer, ok := doc.(map[string]any)
		if !ok {
			return nil, nil, false
		}
		rows, ok := outer["data"].([]any)
		if !ok {
			return nil, nil, false
		}
		pagination, ok := outer[key].(map[string]any)
		if !ok || !hasPaginationKey(pagination) {
			return nil, nil, false
		}
		return rows, pagination, true
	}
}

func extractFlat(doc any) ([]any, map[string]any, bool) {
	outer, ok := doc.(map[string]any)
	if !ok {
		return nil, nil, false
	}
	rows, ok := outer["data"].([]any)
	if !ok {
		return nil, nil, false
	}
	return rows, outer, true
}

func extractArray(doc any) ([]any, map[string]any, bool) {
	rows, ok := doc.([]any)
	return rows, nil, ok
}

// paginationSources lists the maps that may carry pagination fields, in lookup order.
func paginationSources(doc any) []map[string]any {
	outer, ok := doc.(map[string]any)
	if !ok {
		return nil
	}
	sources := make([]map[string]any, 0, 4)
	for _, key := range []string{"data", "meta", "pagination"} {
		if m, ok := outer[key].(map[string]any); ok {
			sources = append(sources, m)
		}
	}
	return append(sources, outer)
}

func hasPaginationKey(m map[string]any) bool {
	for _, keys := range paginationKeys {
		for _, key := range keys {
			if v, ok := m[key]; ok && v != nil {
				return true
			}
		}
	}
	return false
}

func normalizeResult(raw []any, pagination []map[string]any, requestedPerPage int) ListResult {
	rows := make([]Row, 0, len(raw))
	for _, item := range raw {
		if obj, ok := item.(map[string]any); ok {
			rows = append(rows, Row(obj))
		}
	}

	current, ok := firstInt(pagination, currentPageKeys)
	if !ok || current < 1 {
		current = 1
	}
	perPage, ok := firstInt(pagination, perPageKeys)
	if !ok || perPage < 1 {
		perPage = requestedPerPage
	}
	if perPage < 1 {
		perPage = AllowedPerPage[0]
	}
	total, ok := firstInt(pagination, totalKeys)
	if !ok || total < 0 {
		total = (current-1)*perPage + len(rows)
	}
	if total < len(rows) {
		total = len(rows)
	}
	last, ok := firstInt(pagination, lastPageKeys)
	if !ok || last < 1 {
		last = (total + perPage - 1) / perPage
	}
	if last < 1 {
		last = 1
	}
	if total == 0 {
		rows = []Row{}
		last = 1
	}
	if current > last {
		current = last
	}
	return ListResult{Rows: rows, Total: total, CurrentPage: current, LastPage: last}
}

func firstInt(sources []map[string]any, keys []string) (int, bool) {
	for _, m := range sources {
		for _, key := range keys {
			v, ok := m[key]
			if !ok || v == nil {
				continue
			}
			n, err := cast.ToIntE(v)
			if err != nil {
				continue
			}
			return n, true
		}
	}
	return 0, false
}
