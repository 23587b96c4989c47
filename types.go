package mindflow

import "time"

// User is an admin account. PasswordHash is a bcrypt digest; plaintext
// passwords are hashed at the write boundary (CreateUser, UpdatePassword)
// and never stored.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Category groups posts. Posts reference categories by id; the reference is
// nullable and cleared when the category is deleted.
type Category struct {
	ID   int64
	Name string
}

// Post is the core content type stored in SQLite and rendered by templates.
// Category is populated on single-post and category-page reads and nil
// elsewhere.
type Post struct {
	ID         int64
	Title      string
	Slug       string
	Body       string
	Image      string
	CategoryID int64 // 0 means no category
	Category   *Category
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Subscriber is a newsletter signup. Email is unique; duplicate signups are
// tolerated at the handler level.
type Subscriber struct {
	ID    int64
	Email string
}

// Suggestion is the trimmed post shape returned by the search-suggestions API.
type Suggestion struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}
