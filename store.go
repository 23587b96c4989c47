package mindflow

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("mindflow: not found")
	// ErrDuplicate is returned when a write violates a unique constraint
	// (username, post slug, subscriber email).
	ErrDuplicate = errors.New("mindflow: duplicate key")
)

// Store wraps a SQLite database and provides CRUD operations for users,
// categories, posts, and subscribers. Uniqueness is enforced by the
// database's unique indexes at write time, not pre-checked.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL for concurrent read/write access; busy_timeout so writers wait
	// instead of failing with SQLITE_BUSY; synchronous=NORMAL is safe with WAL.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    slug TEXT NOT NULL UNIQUE,
    body TEXT NOT NULL,
    image TEXT NOT NULL DEFAULT '',
    category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS subscribers (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    email TEXT NOT NULL UNIQUE
);
CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_posts_category ON posts(category_id);
`)
	return err
}

// storeErr maps driver errors onto the store's sentinel errors.
func storeErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ErrDuplicate
	}
	return err
}

const timeLayout = time.RFC3339Nano

func encodeTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func decodeTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// --- Users ---

// CreateUser inserts a user record. The PasswordHash field must already be a
// bcrypt digest; hashing happens at the caller's write boundary so the
// contract stays visible. Returns ErrDuplicate when the username is taken.
func (s *Store) CreateUser(u User) (int64, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	res, err := s.db.Exec(`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		u.Username, u.PasswordHash, encodeTime(u.CreatedAt))
	if err != nil {
		return 0, storeErr(err)
	}
	return res.LastInsertId()
}

// GetUserByUsername returns the user owning the given username.
func (s *Store) GetUserByUsername(username string) (User, error) {
	var u User
	var created string
	err := s.db.QueryRow(`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`, username).
		Scan(&u.ID, &u.Username, &u.PasswordHash, &created)
	if err != nil {
		return User{}, storeErr(err)
	}
	u.CreatedAt = decodeTime(created)
	return u, nil
}

// UpdatePasswordHash replaces a user's password digest. The caller hashes.
func (s *Store) UpdatePasswordHash(id int64, hash string) error {
	res, err := s.db.Exec(`UPDATE users SET password_hash = ? WHERE id = ?`, hash, id)
	if err != nil {
		return storeErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Posts ---

// CreatePost inserts a post and returns its id. CreatedAt/UpdatedAt are
// stamped when zero. A duplicate slug is rejected by the unique index and
// surfaced as ErrDuplicate.
func (s *Store) CreatePost(p Post) (int64, error) {
	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}
	res, err := s.db.Exec(`INSERT INTO posts (title, slug, body, image, category_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Title, p.Slug, p.Body, p.Image, nullableID(p.CategoryID), encodeTime(p.CreatedAt), encodeTime(p.UpdatedAt))
	if err != nil {
		return 0, storeErr(err)
	}
	return res.LastInsertId()
}

// UpdatePost rewrites a post's mutable fields and stamps UpdatedAt.
func (s *Store) UpdatePost(p Post) error {
	res, err := s.db.Exec(`UPDATE posts SET title = ?, slug = ?, body = ?, image = ?, category_id = ?, updated_at = ? WHERE id = ?`,
		p.Title, p.Slug, p.Body, p.Image, nullableID(p.CategoryID), encodeTime(time.Now()), p.ID)
	if err != nil {
		return storeErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost removes a post by id. Deleting a missing post is not an error.
func (s *Store) DeletePost(id int64) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE id = ?`, id)
	return storeErr(err)
}

// GetPost returns a single post by id with its category populated.
func (s *Store) GetPost(id int64) (Post, error) {
	row := s.db.QueryRow(`
SELECT p.id, p.title, p.slug, p.body, p.image, p.category_id, p.created_at, p.updated_at, c.name
FROM posts p LEFT JOIN categories c ON c.id = p.category_id
WHERE p.id = ?`, id)
	return scanPopulatedPost(row)
}

// ListPosts returns at most limit posts ordered by creation time descending,
// skipping offset rows.
func (s *Store) ListPosts(limit, offset int) ([]Post, error) {
	rows, err := s.db.Query(`SELECT id, title, slug, body, image, category_id, created_at, updated_at FROM posts ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

// ListAllPosts returns every post, newest first (for the admin dashboard).
func (s *Store) ListAllPosts() ([]Post, error) {
	rows, err := s.db.Query(`SELECT id, title, slug, body, image, category_id, created_at, updated_at FROM posts ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

// CountPosts returns the total number of posts.
func (s *Store) CountPosts() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&n)
	return n, err
}

// ListPostsByCategory returns posts in the given category, newest first,
// with each post's category populated.
func (s *Store) ListPostsByCategory(categoryID int64, limit, offset int) ([]Post, error) {
	rows, err := s.db.Query(`
SELECT p.id, p.title, p.slug, p.body, p.image, p.category_id, p.created_at, p.updated_at, c.name
FROM posts p LEFT JOIN categories c ON c.id = p.category_id
WHERE p.category_id = ?
ORDER BY p.created_at DESC, p.id DESC LIMIT ? OFFSET ?`, categoryID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPopulatedPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// CountPostsByCategory returns the number of posts in a category.
func (s *Store) CountPostsByCategory(categoryID int64) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM posts WHERE category_id = ?`, categoryID).Scan(&n)
	return n, err
}

// SearchPosts returns posts whose title or body contains term,
// case-insensitively. The term must already be sanitized (SanitizeSearch);
// matches are unranked. An empty term returns no results.
func (s *Store) SearchPosts(term string) ([]Post, error) {
	if term == "" {
		return nil, nil
	}
	needle := strings.ToLower(term)
	rows, err := s.db.Query(`SELECT id, title, slug, body, image, category_id, created_at, updated_at FROM posts WHERE instr(lower(title), ?) > 0 OR instr(lower(body), ?) > 0`, needle, needle)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPosts(rows)
}

// SearchTitles returns up to limit id+title suggestions whose title contains
// term, case-insensitively.
func (s *Store) SearchTitles(term string, limit int) ([]Suggestion, error) {
	if term == "" {
		return nil, nil
	}
	needle := strings.ToLower(term)
	rows, err := s.db.Query(`SELECT id, title FROM posts WHERE instr(lower(title), ?) > 0 LIMIT ?`, needle, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Suggestion
	for rows.Next() {
		var sg Suggestion
		if err := rows.Scan(&sg.ID, &sg.Title); err != nil {
			return nil, err
		}
		out = append(out, sg)
	}
	return out, rows.Err()
}

// --- Categories ---

// CreateCategory inserts a category and returns its id.
func (s *Store) CreateCategory(name string) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO categories (name) VALUES (?)`, name)
	if err != nil {
		return 0, storeErr(err)
	}
	return res.LastInsertId()
}

// GetCategory returns a category by id.
func (s *Store) GetCategory(id int64) (Category, error) {
	var c Category
	err := s.db.QueryRow(`SELECT id, name FROM categories WHERE id = ?`, id).Scan(&c.ID, &c.Name)
	if err != nil {
		return Category{}, storeErr(err)
	}
	return c, nil
}

// ListCategories returns all categories ordered by name.
func (s *Store) ListCategories() ([]Category, error) {
	rows, err := s.db.Query(`SELECT id, name FROM categories ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cats []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, err
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// UpdateCategory renames a category.
func (s *Store) UpdateCategory(id int64, name string) error {
	res, err := s.db.Exec(`UPDATE categories SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return storeErr(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteCategory removes a category and clears the reference on any posts
// that pointed at it, in one transaction.
func (s *Store) DeleteCategory(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE posts SET category_id = NULL WHERE category_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM categories WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// --- Subscribers ---

// AddSubscriber records a newsletter signup. Returns ErrDuplicate if the
// email is already subscribed.
func (s *Store) AddSubscriber(email string) error {
	_, err := s.db.Exec(`INSERT INTO subscribers (email) VALUES (?)`, email)
	return storeErr(err)
}

// CountSubscribers returns the number of subscribers.
func (s *Store) CountSubscribers() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM subscribers`).Scan(&n)
	return n, err
}

// --- Scan helpers ---

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(sc rowScanner) (Post, error) {
	var p Post
	var catID sql.NullInt64
	var created, updated string
	if err := sc.Scan(&p.ID, &p.Title, &p.Slug, &p.Body, &p.Image, &catID, &created, &updated); err != nil {
		return Post{}, storeErr(err)
	}
	if catID.Valid {
		p.CategoryID = catID.Int64
	}
	p.CreatedAt = decodeTime(created)
	p.UpdatedAt = decodeTime(updated)
	return p, nil
}

func scanPopulatedPost(sc rowScanner) (Post, error) {
	var p Post
	var catID sql.NullInt64
	var catName sql.NullString
	var created, updated string
	if err := sc.Scan(&p.ID, &p.Title, &p.Slug, &p.Body, &p.Image, &catID, &created, &updated, &catName); err != nil {
		return Post{}, storeErr(err)
	}
	if catID.Valid {
		p.CategoryID = catID.Int64
		if catName.Valid {
			p.Category = &Category{ID: catID.Int64, Name: catName.String}
		}
	}
	p.CreatedAt = decodeTime(created)
	p.UpdatedAt = decodeTime(updated)
	return p, nil
}

func scanPosts(rows *sql.Rows) ([]Post, error) {
	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}
