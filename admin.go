package mindflow

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

// --- Auth handlers ---

func (a *App) handleLoginPage(c echo.Context) error {
	return Render(c, a.Views.Login(""))
}

func (a *App) handleRegisterPage(c echo.Context) error {
	return Render(c, a.Views.Register(""))
}

// handleRegister provisions an admin account. The password is hashed right
// here at the write boundary; the store only ever sees the digest.
func (a *App) handleRegister(c echo.Context) error {
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")
	if username == "" || password == "" {
		return RenderStatus(c, http.StatusBadRequest, a.Views.Register("Username and password are required"))
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}
	if _, err := a.Store.CreateUser(User{Username: username, PasswordHash: hash}); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return RenderStatus(c, http.StatusBadRequest, a.Views.Register("User already exists"))
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/auth/login")
}

// handleLogin verifies credentials and issues the session token cookie.
func (a *App) handleLogin(c echo.Context) error {
	if !a.loginLimiter.Allow(c.RealIP()) {
		return c.String(http.StatusTooManyRequests, "Too many login attempts. Try again later.")
	}
	username := strings.TrimSpace(c.FormValue("username"))
	password := c.FormValue("password")

	user, err := a.Store.GetUserByUsername(username)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return RenderStatus(c, http.StatusUnauthorized, a.Views.Login("Invalid credentials"))
		}
		return err
	}
	if !CheckPassword(password, user.PasswordHash) {
		return RenderStatus(c, http.StatusUnauthorized, a.Views.Login("Invalid credentials"))
	}

	token, err := a.codec.Sign(user.ID)
	if err != nil {
		return err
	}
	setTokenCookie(c, token, a.Config.Auth.CookieSecure)
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard")
}

func (a *App) handleLogout(c echo.Context) error {
	clearTokenCookie(c)
	return c.Redirect(http.StatusSeeOther, "/")
}

// --- Post CRUD ---

func (a *App) handleDashboard(c echo.Context) error {
	posts, err := a.Store.ListAllPosts()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminDashboard(posts, c.QueryParam("msg")))
}

func (a *App) handleAddPostForm(c echo.Context) error {
	categories, err := a.Store.ListCategories()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AddPost(categories, ""))
}

func (a *App) handleAddPost(c echo.Context) error {
	title := strings.TrimSpace(c.FormValue("title"))
	body := c.FormValue("body")
	if title == "" || body == "" {
		return a.addPostError(c, http.StatusUnprocessableEntity, "Title and body are required")
	}
	slug := strings.TrimSpace(c.FormValue("slug"))
	if slug == "" {
		slug = DefaultSlug(title)
	}

	// Image resolution order: uploaded file > explicit image field > placeholder.
	image, err := a.resolveImage(c, c.FormValue("image"))
	if err != nil {
		return a.addPostError(c, http.StatusBadRequest, "Invalid image: "+err.Error())
	}

	post := Post{
		Title:      title,
		Slug:       slug,
		Body:       body,
		Image:      image,
		CategoryID: formCategoryID(c),
	}
	if _, err := a.Store.CreatePost(post); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return a.addPostError(c, http.StatusConflict, fmt.Sprintf("Slug %q is already in use", slug))
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard")
}

func (a *App) addPostError(c echo.Context, code int, msg string) error {
	categories, err := a.Store.ListCategories()
	if err != nil {
		return err
	}
	return RenderStatus(c, code, a.Views.AddPost(categories, msg))
}

func (a *App) handleEditPostForm(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.ErrNotFound
	}
	post, err := a.Store.GetPost(id)
	if err != nil {
		return err // ErrNotFound renders the 404 page via the error handler
	}
	categories, err := a.Store.ListCategories()
	if err != nil {
		return err
	}
	return Render(c, a.Views.EditPost(post, categories, ""))
}

func (a *App) handleEditPost(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.ErrNotFound
	}
	title := strings.TrimSpace(c.FormValue("title"))
	body := c.FormValue("body")
	if title == "" || body == "" {
		return a.editPostError(c, id, "Title and body are required")
	}
	slug := strings.TrimSpace(c.FormValue("slug"))
	if slug == "" {
		slug = DefaultSlug(title)
	}

	// The form carries the current image as a hidden field; a new upload
	// wins, otherwise the carried value is preserved.
	image, err := a.resolveImage(c, c.FormValue("image"))
	if err != nil {
		return a.editPostError(c, id, "Invalid image: "+err.Error())
	}

	post := Post{
		ID:         id,
		Title:      title,
		Slug:       slug,
		Body:       body,
		Image:      image,
		CategoryID: formCategoryID(c),
	}
	if err := a.Store.UpdatePost(post); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return a.editPostError(c, id, fmt.Sprintf("Slug %q is already in use", slug))
		}
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/edit-post/"+strconv.FormatInt(id, 10))
}

func (a *App) editPostError(c echo.Context, id int64, msg string) error {
	post, err := a.Store.GetPost(id)
	if err != nil {
		return err
	}
	categories, err := a.Store.ListCategories()
	if err != nil {
		return err
	}
	return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.EditPost(post, categories, msg))
}

func (a *App) handleDeletePost(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.ErrNotFound
	}
	if err := a.Store.DeletePost(id); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard")
}

// --- Category CRUD ---

func (a *App) handleCategories(c echo.Context) error {
	categories, err := a.Store.ListCategories()
	if err != nil {
		return err
	}
	return Render(c, a.Views.AdminCategories(categories, c.QueryParam("msg")))
}

func (a *App) handleAddCategory(c echo.Context) error {
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		categories, err := a.Store.ListCategories()
		if err != nil {
			return err
		}
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.AdminCategories(categories, "Name is required"))
	}
	if _, err := a.Store.CreateCategory(name); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/categories")
}

func (a *App) handleEditCategoryForm(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.ErrNotFound
	}
	category, err := a.Store.GetCategory(id)
	if err != nil {
		return err
	}
	return Render(c, a.Views.EditCategory(category, ""))
}

func (a *App) handleEditCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.ErrNotFound
	}
	name := strings.TrimSpace(c.FormValue("name"))
	if name == "" {
		category, err := a.Store.GetCategory(id)
		if err != nil {
			return err
		}
		return RenderStatus(c, http.StatusUnprocessableEntity, a.Views.EditCategory(category, "Name is required"))
	}
	if err := a.Store.UpdateCategory(id, name); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/categories")
}

// handleDeleteCategory removes a category. Posts referencing it keep
// existing with their category cleared rather than dangling.
func (a *App) handleDeleteCategory(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return echo.ErrNotFound
	}
	if err := a.Store.DeleteCategory(id); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/categories")
}

// formCategoryID parses the optional category select; 0 means none.
func formCategoryID(c echo.Context) int64 {
	id, err := strconv.ParseInt(c.FormValue("category"), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// resolveImage applies the image resolution policy for post writes: a
// freshly uploaded file wins, otherwise the fallback (the form's image
// field on create, the carried current value on edit).
func (a *App) resolveImage(c echo.Context, fallback string) (string, error) {
	fh, err := c.FormFile("imageUpload")
	if err != nil || fh == nil {
		if fallback == "" {
			fallback = a.Config.Uploads.DefaultImage
		}
		return fallback, nil
	}
	return a.saveUpload(fh)
}
