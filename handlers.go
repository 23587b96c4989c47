package mindflow

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// handleHome serves the landing page: the latest posts plus a "see all"
// link when more exist than fit on it.
func (a *App) handleHome(c echo.Context) error {
	posts, err := a.Store.ListPosts(HomePostLimit, 0)
	if err != nil {
		return err
	}
	total, err := a.Store.CountPosts()
	if err != nil {
		return err
	}
	return Render(c, a.Views.Home(posts, total > HomePostLimit))
}

// handleArticles serves the full listing with pagination.
func (a *App) handleArticles(c echo.Context) error {
	page := queryPage(c)
	result, err := a.Store.ListPage(page)
	if err != nil {
		return err
	}
	return Render(c, a.Views.Articles(result))
}

// handlePost serves a single post by id with its category populated.
func (a *App) handlePost(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	post, err := a.Store.GetPost(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	return Render(c, a.Views.Post(post))
}

// staticPage returns a handler rendering one of the fixed pages
// (about, contact, privacy, terms).
func (a *App) staticPage(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		return Render(c, a.Views.Static(name))
	}
}

// handleSearch runs a sanitized case-insensitive substring search over
// post titles and bodies.
func (a *App) handleSearch(c echo.Context) error {
	term := SanitizeSearch(c.FormValue("searchTerm"))
	posts, err := a.Store.SearchPosts(term)
	if err != nil {
		return err
	}
	return Render(c, a.Views.SearchResults(term, posts))
}

// handleSuggestions is the autocomplete API: up to MaxSuggestions title
// matches as JSON. Empty queries never reach the store.
func (a *App) handleSuggestions(c echo.Context) error {
	out, err := a.Store.Suggest(c.QueryParam("q"))
	if err != nil {
		a.Logger.Errorf("search suggestions: %v", err)
		return c.JSON(http.StatusInternalServerError, []Suggestion{})
	}
	return c.JSON(http.StatusOK, out)
}

// handleCategory lists a category's posts, paginated.
func (a *App) handleCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
	}
	category, err := a.Store.GetCategory(id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusNotFound, a.Views.NotFound())
		}
		return err
	}
	result, err := a.Store.CategoryPage(id, queryPage(c))
	if err != nil {
		return err
	}
	return Render(c, a.Views.CategoryPosts(category, result))
}

// handleSubscribe records a newsletter signup. Duplicate signups are
// silently treated as success.
func (a *App) handleSubscribe(c echo.Context) error {
	email := c.FormValue("email")
	if email != "" {
		if err := a.Store.AddSubscriber(email); err != nil && !errors.Is(err, ErrDuplicate) {
			return err
		}
	}
	target := c.Request().Referer()
	if target == "" {
		target = "/"
	}
	return c.Redirect(http.StatusSeeOther, target)
}

// queryPage parses the page query parameter, defaulting to 1.
func queryPage(c echo.Context) int {
	page, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
