package mindflow

import "strings"

// PostsPerPage is the fixed page size for the articles and category listings.
const PostsPerPage = 9

// HomePostLimit is how many latest posts the home page shows.
const HomePostLimit = 6

// MaxSuggestions caps the search-suggestions API result set.
const MaxSuggestions = 5

// PageResult is one page of a post listing.
type PageResult struct {
	Posts       []Post
	Page        int  // 1-indexed current page
	NextPage    int  // Page+1, meaningful only when HasNextPage
	HasNextPage bool
	Total       int // total posts across all pages
}

// PageOffset computes how many rows to skip for a 1-indexed page.
// Pages below 1 are clamped to 1.
func PageOffset(page, perPage int) int {
	if page < 1 {
		page = 1
	}
	return perPage * (page - 1)
}

// HasNextPage reports whether page+1 still falls within ceil(total/perPage).
func HasNextPage(page, perPage, total int) bool {
	if perPage <= 0 {
		return false
	}
	lastPage := (total + perPage - 1) / perPage
	return page+1 <= lastPage
}

// SanitizeSearch strips every character outside [A-Za-z0-9 ] from a raw
// query string. This happens before the term reaches the store, so malformed
// or hostile input can never influence the match expression.
func SanitizeSearch(q string) string {
	var b strings.Builder
	for _, r := range q {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ListPage returns one page of all posts, newest first.
func (s *Store) ListPage(page int) (PageResult, error) {
	if page < 1 {
		page = 1
	}
	total, err := s.CountPosts()
	if err != nil {
		return PageResult{}, err
	}
	posts, err := s.ListPosts(PostsPerPage, PageOffset(page, PostsPerPage))
	if err != nil {
		return PageResult{}, err
	}
	return PageResult{
		Posts:       posts,
		Page:        page,
		NextPage:    page + 1,
		HasNextPage: HasNextPage(page, PostsPerPage, total),
		Total:       total,
	}, nil
}

// CategoryPage returns one page of posts constrained to a category.
func (s *Store) CategoryPage(categoryID int64, page int) (PageResult, error) {
	if page < 1 {
		page = 1
	}
	total, err := s.CountPostsByCategory(categoryID)
	if err != nil {
		return PageResult{}, err
	}
	posts, err := s.ListPostsByCategory(categoryID, PostsPerPage, PageOffset(page, PostsPerPage))
	if err != nil {
		return PageResult{}, err
	}
	return PageResult{
		Posts:       posts,
		Page:        page,
		NextPage:    page + 1,
		HasNextPage: HasNextPage(page, PostsPerPage, total),
		Total:       total,
	}, nil
}

// Suggest returns up to MaxSuggestions title matches for the raw query.
// Queries that sanitize down to fewer than two characters short-circuit
// without touching the store.
func (s *Store) Suggest(rawQuery string) ([]Suggestion, error) {
	term := SanitizeSearch(rawQuery)
	if len(term) < 2 {
		return []Suggestion{}, nil
	}
	out, err := s.SearchTitles(term, MaxSuggestions)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []Suggestion{}
	}
	return out, nil
}
