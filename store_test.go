package mindflow

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test_blog.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreatePost(t *testing.T, s *Store, p Post) int64 {
	t.Helper()
	id, err := s.CreatePost(p)
	if err != nil {
		t.Fatalf("CreatePost(%q) failed: %v", p.Slug, err)
	}
	return id
}

func TestCreateAndGetPost(t *testing.T) {
	s := setupTestStore(t)

	catID, err := s.CreateCategory("Technology")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}

	id := mustCreatePost(t, s, Post{
		Title:      "The Future of AI",
		Slug:       "the-future-of-ai",
		Body:       "Artificial Intelligence is reshaping our world...",
		Image:      "/images/default-post.jpg",
		CategoryID: catID,
	})

	got, err := s.GetPost(id)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "The Future of AI" {
		t.Errorf("Title = %q, want %q", got.Title, "The Future of AI")
	}
	if got.Slug != "the-future-of-ai" {
		t.Errorf("Slug = %q, want %q", got.Slug, "the-future-of-ai")
	}
	if got.Category == nil {
		t.Fatal("Category should be populated")
	}
	if got.Category.Name != "Technology" {
		t.Errorf("Category.Name = %q, want %q", got.Category.Name, "Technology")
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps should be stamped on create")
	}
}

func TestGetPostNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetPost(42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestCreatePostDuplicateSlug(t *testing.T) {
	s := setupTestStore(t)

	mustCreatePost(t, s, Post{Title: "First", Slug: "same-slug", Body: "b"})

	_, err := s.CreatePost(Post{Title: "Second", Slug: "same-slug", Body: "b"})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate for slug collision, got %v", err)
	}
}

func TestUpdatePostStampsUpdatedAt(t *testing.T) {
	s := setupTestStore(t)

	created := time.Now().Add(-time.Hour)
	id := mustCreatePost(t, s, Post{
		Title: "Original", Slug: "original", Body: "b",
		CreatedAt: created, UpdatedAt: created,
	})

	if err := s.UpdatePost(Post{ID: id, Title: "Updated", Slug: "original", Body: "b2"}); err != nil {
		t.Fatalf("UpdatePost failed: %v", err)
	}

	got, err := s.GetPost(id)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "Updated" {
		t.Errorf("Title = %q, want %q", got.Title, "Updated")
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Errorf("UpdatedAt (%v) should advance past CreatedAt (%v)", got.UpdatedAt, got.CreatedAt)
	}
}

func TestUpdatePostNotFound(t *testing.T) {
	s := setupTestStore(t)

	err := s.UpdatePost(Post{ID: 99, Title: "t", Slug: "s", Body: "b"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeletePost(t *testing.T) {
	s := setupTestStore(t)

	id := mustCreatePost(t, s, Post{Title: "To Delete", Slug: "to-delete", Body: "b"})
	if err := s.DeletePost(id); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	if _, err := s.GetPost(id); !errors.Is(err, ErrNotFound) {
		t.Errorf("post should be gone after delete, got err: %v", err)
	}

	// Deleting a missing post is not an error.
	if err := s.DeletePost(id); err != nil {
		t.Errorf("DeletePost on nonexistent should not error, got: %v", err)
	}
}

func TestListPostsOrderAndPaging(t *testing.T) {
	s := setupTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		mustCreatePost(t, s, Post{
			Title:     "Post",
			Slug:      DefaultSlug("post " + string(rune('a'+i))),
			Body:      "b",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	got, err := s.ListPosts(3, 0)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ListPosts count = %d, want 3", len(got))
	}
	if got[0].Slug != "post-e" {
		t.Errorf("newest post should come first, got %s", got[0].Slug)
	}

	got, err = s.ListPosts(3, 3)
	if err != nil {
		t.Fatalf("ListPosts offset failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("offset page count = %d, want 2", len(got))
	}
}

func TestCategoryCascadeNullOnDelete(t *testing.T) {
	s := setupTestStore(t)

	catID, err := s.CreateCategory("Lifestyle")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	postID := mustCreatePost(t, s, Post{Title: "t", Slug: "t", Body: "b", CategoryID: catID})

	if err := s.DeleteCategory(catID); err != nil {
		t.Fatalf("DeleteCategory failed: %v", err)
	}

	got, err := s.GetPost(postID)
	if err != nil {
		t.Fatalf("GetPost after category delete failed: %v", err)
	}
	if got.CategoryID != 0 || got.Category != nil {
		t.Errorf("category reference should be cleared, got id=%d cat=%v", got.CategoryID, got.Category)
	}
	if _, err := s.GetCategory(catID); !errors.Is(err, ErrNotFound) {
		t.Errorf("category should be deleted, got err: %v", err)
	}
}

func TestListPostsByCategory(t *testing.T) {
	s := setupTestStore(t)

	tech, _ := s.CreateCategory("Tech")
	life, _ := s.CreateCategory("Life")
	mustCreatePost(t, s, Post{Title: "a", Slug: "a", Body: "b", CategoryID: tech})
	mustCreatePost(t, s, Post{Title: "b", Slug: "b", Body: "b", CategoryID: tech})
	mustCreatePost(t, s, Post{Title: "c", Slug: "c", Body: "b", CategoryID: life})

	got, err := s.ListPostsByCategory(tech, PostsPerPage, 0)
	if err != nil {
		t.Fatalf("ListPostsByCategory failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("count = %d, want 2", len(got))
	}
	for _, p := range got {
		if p.Category == nil || p.Category.Name != "Tech" {
			t.Errorf("post %q should have Tech populated, got %v", p.Slug, p.Category)
		}
	}

	n, err := s.CountPostsByCategory(tech)
	if err != nil || n != 2 {
		t.Errorf("CountPostsByCategory = %d, %v; want 2, nil", n, err)
	}
}

func TestSearchPosts(t *testing.T) {
	s := setupTestStore(t)

	mustCreatePost(t, s, Post{Title: "The Future of AI", Slug: "ai", Body: "machines"})
	mustCreatePost(t, s, Post{Title: "Gardening", Slug: "garden", Body: "AI appears in the body here"})
	mustCreatePost(t, s, Post{Title: "Cooking", Slug: "cook", Body: "pasta"})

	got, err := s.SearchPosts("ai")
	if err != nil {
		t.Fatalf("SearchPosts failed: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("search should match title and body, got %d results", len(got))
	}

	got, err = s.SearchPosts("")
	if err != nil || got != nil {
		t.Errorf("empty term should return nothing, got %v, %v", got, err)
	}
}

func TestSearchTitlesCapped(t *testing.T) {
	s := setupTestStore(t)

	for i := 0; i < 8; i++ {
		mustCreatePost(t, s, Post{Title: "AI story", Slug: DefaultSlug("ai story " + string(rune('a'+i))), Body: "b"})
	}

	got, err := s.SearchTitles("ai", MaxSuggestions)
	if err != nil {
		t.Fatalf("SearchTitles failed: %v", err)
	}
	if len(got) != MaxSuggestions {
		t.Errorf("suggestions = %d, want %d", len(got), MaxSuggestions)
	}
}

func TestUserLifecycle(t *testing.T) {
	s := setupTestStore(t)

	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	id, err := s.CreateUser(User{Username: "admin", PasswordHash: hash})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}

	if _, err := s.CreateUser(User{Username: "admin", PasswordHash: hash}); !errors.Is(err, ErrDuplicate) {
		t.Errorf("duplicate username should return ErrDuplicate, got %v", err)
	}

	got, err := s.GetUserByUsername("admin")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if got.ID != id {
		t.Errorf("ID = %d, want %d", got.ID, id)
	}
	if !CheckPassword("password123", got.PasswordHash) {
		t.Error("stored hash should verify against the original password")
	}

	newHash, _ := HashPassword("changed")
	if err := s.UpdatePasswordHash(id, newHash); err != nil {
		t.Fatalf("UpdatePasswordHash failed: %v", err)
	}
	got, _ = s.GetUserByUsername("admin")
	if CheckPassword("password123", got.PasswordHash) {
		t.Error("old password should no longer verify")
	}
}

func TestSubscriberDuplicates(t *testing.T) {
	s := setupTestStore(t)

	if err := s.AddSubscriber("reader@example.com"); err != nil {
		t.Fatalf("AddSubscriber failed: %v", err)
	}
	if err := s.AddSubscriber("reader@example.com"); !errors.Is(err, ErrDuplicate) {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
	n, err := s.CountSubscribers()
	if err != nil || n != 1 {
		t.Errorf("CountSubscribers = %d, %v; want 1, nil", n, err)
	}
}

func TestCategoryCRUD(t *testing.T) {
	s := setupTestStore(t)

	id, err := s.CreateCategory("Technology")
	if err != nil {
		t.Fatalf("CreateCategory failed: %v", err)
	}
	if err := s.UpdateCategory(id, "Tech"); err != nil {
		t.Fatalf("UpdateCategory failed: %v", err)
	}
	got, err := s.GetCategory(id)
	if err != nil || got.Name != "Tech" {
		t.Errorf("GetCategory = %+v, %v; want name Tech", got, err)
	}
	if err := s.UpdateCategory(999, "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing category, got %v", err)
	}

	cats, err := s.ListCategories()
	if err != nil || len(cats) != 1 {
		t.Errorf("ListCategories = %v, %v; want one category", cats, err)
	}
}

func TestSeed(t *testing.T) {
	s := setupTestStore(t)

	if err := Seed(s); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	user, err := s.GetUserByUsername("admin")
	if err != nil {
		t.Fatalf("seeded admin missing: %v", err)
	}
	if !CheckPassword("password123", user.PasswordHash) {
		t.Error("seeded admin password should verify")
	}

	n, err := s.CountPosts()
	if err != nil || n != 3 {
		t.Errorf("seeded posts = %d, %v; want 3", n, err)
	}
	cats, _ := s.ListCategories()
	if len(cats) != 3 {
		t.Errorf("seeded categories = %d, want 3", len(cats))
	}

	// Seeding twice must not duplicate anything.
	if err := Seed(s); err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}
	n, _ = s.CountPosts()
	if n != 3 {
		t.Errorf("posts after reseed = %d, want 3", n)
	}
}
