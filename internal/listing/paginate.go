// Package listing sorts, pages and cross-indexes resolved entities.
package listing

// Page is one page of a listing. Page numbers start at 1.
type Page[T any] struct {
	Items []T `json:"items"`
	Page  int `json:"page"`
	Pages int `json:"pages"`
}

// PageCount returns ceil(total/size), and 1 for an empty listing. A size
// below 1 puts everything on one page.
func PageCount(total, size int) int {
	if size < 1 || total <= size {
		return 1
	}
	return (total + size - 1) / size
}

// PageRange enumerates the valid page numbers 1..PageCount.
func PageRange(total, size int) []int {
	n := PageCount(total, size)
	pages := make([]int, n)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// PageOf returns page n of items, which holds items[(n-1)*size, n*size).
// Out of range pages are not an error; they come back empty.
func PageOf[T any](items []T, size, n int) Page[T] {
	pages := PageCount(len(items), size)
	if size < 1 {
		size = max(len(items), 1)
	}
	start := (n - 1) * size
	if n < 1 || start >= len(items) {
		return Page[T]{Items: []T{}, Page: n, Pages: pages}
	}
	end := min(start+size, len(items))
	return Page[T]{Items: items[start:end:end], Page: n, Pages: pages}
}

// Paginate splits items into consecutive pages. Sort before calling.
func Paginate[T any](items []T, size int) []Page[T] {
	pages := PageRange(len(items), size)
	out := make([]Page[T], len(pages))
	for i, n := range pages {
		out[i] = PageOf(items, size, n)
	}
	return out
}
