package mindflow

import "fmt"

// Seed wipes the database and loads a development data set: one admin
// account, three categories, and three sample posts.
func Seed(s *Store) error {
	for _, table := range []string{"posts", "categories", "users", "subscribers"} {
		if _, err := s.db.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	hash, err := HashPassword("password123")
	if err != nil {
		return err
	}
	if _, err := s.CreateUser(User{Username: "admin", PasswordHash: hash}); err != nil {
		return err
	}

	tech, err := s.CreateCategory("Technology")
	if err != nil {
		return err
	}
	life, err := s.CreateCategory("Lifestyle")
	if err != nil {
		return err
	}
	design, err := s.CreateCategory("Design")
	if err != nil {
		return err
	}

	posts := []Post{
		{
			Title:      "The Future of AI",
			Slug:       "the-future-of-ai",
			Body:       "Artificial Intelligence is reshaping our world...",
			Image:      "https://images.unsplash.com/photo-1677442136019-21780ecad995?auto=format&fit=crop&q=80&w=1000",
			CategoryID: tech,
		},
		{
			Title:      "Minimalism in Design",
			Slug:       "minimalism-in-design",
			Body:       "Less is more. The philosophy of minimalism...",
			Image:      "https://images.unsplash.com/photo-1507721999472-8ed4421c4af2?auto=format&fit=crop&q=80&w=1000",
			CategoryID: design,
		},
		{
			Title:      "Morning Routine for Success",
			Slug:       "morning-routine-success",
			Body:       "How you start your day determines your success...",
			Image:      "https://images.unsplash.com/photo-1493770348161-369560ae357d?auto=format&fit=crop&q=80&w=1000",
			CategoryID: life,
		},
	}
	for _, p := range posts {
		if _, err := s.CreatePost(p); err != nil {
			return err
		}
	}
	return nil
}
