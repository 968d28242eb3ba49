package datagrid

import "sort"

const pageWindow = 2

// PageItem is one entry of the pagination strip; Ellipsis items carry no page.
type PageItem struct {
	Page     int  `json:"page,omitempty"`
	Current  bool `json:"current,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// PageStrip returns the first two pages, the last two pages and current±2, sorted and
// de-duplicated, with one ellipsis marker per gap.
func PageStrip(current, last int) []PageItem {
	if last < 1 {
		last = 1
	}
	current = clampPage(current, last)

	seen := map[int]bool{}
	var pages []int
	add := func(p int) {
		if p < 1 || p > last || seen[p] {
			return
		}
		seen[p] = true
		pages = append(pages, p)
	}
	add(1)
	add(2)
	add(last - 1)
	add(last)
	for p := current - pageWindow; p <= current+pageWindow; p++ {
		add(p)
	}
	sort.Ints(pages)

	items := make([]PageItem, 0, len(pages)+2)
	prev := 0
	for _, p := range pages {
		if prev != 0 && p-prev > 1 {
			items = append(items, PageItem{Ellipsis: true})
		}
		items = append(items, PageItem{Page: p, Current: p == current})
		prev = p
	}
	return items
}

func clampPage(n, last int) int {
	if last < 1 {
		last = 1
	}
	if n < 1 {
		return 1
	}
	if n > last {
		return last
	}
	return n
}

func validPerPage(n int) bool {
	for _, allowed := range AllowedPerPage {
		if n == allowed {
			return true
		}
	}
	return false
}
