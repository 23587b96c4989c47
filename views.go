package mindflow

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"
)

// ViewFuncs holds the templ components the engine calls when rendering
// pages. Sites own their templates and inject them here; any entry left nil
// falls back to a minimal unstyled component so the engine always renders.
type ViewFuncs struct {
	Home          func(posts []Post, showSeeAll bool) templ.Component
	Articles      func(page PageResult) templ.Component
	Post          func(post Post) templ.Component
	Static        func(page string) templ.Component
	SearchResults func(term string, posts []Post) templ.Component
	CategoryPosts func(category Category, page PageResult) templ.Component

	Login    func(errMsg string) templ.Component
	Register func(errMsg string) templ.Component

	AdminDashboard  func(posts []Post, msg string) templ.Component
	AddPost         func(categories []Category, errMsg string) templ.Component
	EditPost        func(post Post, categories []Category, errMsg string) templ.Component
	AdminCategories func(categories []Category, msg string) templ.Component
	EditCategory    func(category Category, errMsg string) templ.Component

	NotFound    func() templ.Component
	ServerError func() templ.Component
}

func (v *ViewFuncs) setDefaults() {
	if v.Home == nil {
		v.Home = func(posts []Post, showSeeAll bool) templ.Component {
			return postList("Home", posts)
		}
	}
	if v.Articles == nil {
		v.Articles = func(page PageResult) templ.Component {
			return postList(fmt.Sprintf("Articles — page %d", page.Page), page.Posts)
		}
	}
	if v.Post == nil {
		v.Post = func(post Post) templ.Component {
			return plainPage(post.Title, post.Body)
		}
	}
	if v.Static == nil {
		v.Static = func(page string) templ.Component {
			return plainPage(page, "")
		}
	}
	if v.SearchResults == nil {
		v.SearchResults = func(term string, posts []Post) templ.Component {
			return postList("Search: "+term, posts)
		}
	}
	if v.CategoryPosts == nil {
		v.CategoryPosts = func(category Category, page PageResult) templ.Component {
			return postList(category.Name, page.Posts)
		}
	}
	if v.Login == nil {
		v.Login = func(errMsg string) templ.Component { return plainPage("Login", errMsg) }
	}
	if v.Register == nil {
		v.Register = func(errMsg string) templ.Component { return plainPage("Register", errMsg) }
	}
	if v.AdminDashboard == nil {
		v.AdminDashboard = func(posts []Post, msg string) templ.Component {
			return postList("Dashboard", posts)
		}
	}
	if v.AddPost == nil {
		v.AddPost = func(categories []Category, errMsg string) templ.Component {
			return plainPage("Add Post", errMsg)
		}
	}
	if v.EditPost == nil {
		v.EditPost = func(post Post, categories []Category, errMsg string) templ.Component {
			return plainPage("Edit Post: "+post.Title, errMsg)
		}
	}
	if v.AdminCategories == nil {
		v.AdminCategories = func(categories []Category, msg string) templ.Component {
			return plainPage("Categories", msg)
		}
	}
	if v.EditCategory == nil {
		v.EditCategory = func(category Category, errMsg string) templ.Component {
			return plainPage("Edit Category: "+category.Name, errMsg)
		}
	}
	if v.NotFound == nil {
		v.NotFound = func() templ.Component { return plainPage("Not Found", "") }
	}
	if v.ServerError == nil {
		v.ServerError = func() templ.Component { return plainPage("Server Error", "") }
	}
}

func plainPage(title, body string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, "<h1>%s</h1><p>%s</p>", html.EscapeString(title), html.EscapeString(body))
		return err
	})
}

func postList(title string, posts []Post) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, "<h1>%s</h1><ul>", html.EscapeString(title)); err != nil {
			return err
		}
		for _, p := range posts {
			if _, err := fmt.Fprintf(w, `<li><a href="/post/%d">%s</a></li>`, p.ID, html.EscapeString(p.Title)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</ul>")
		return err
	})
}
