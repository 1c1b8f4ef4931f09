package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dfryer1193/portfolio/blog/domain"
)

func TestMemoryPostRepository_ListPosts_NewestFirst(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := repo.InsertPost(ctx, &domain.Post{
			Title:      string(rune('a' + i)),
			UploadDate: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("InsertPost failed: %v", err)
		}
	}

	tests := []struct {
		name     string
		page     int
		pageSize int
		titles   []string
	}{
		{name: "first page", page: 1, pageSize: 2, titles: []string{"e", "d"}},
		{name: "second page", page: 2, pageSize: 2, titles: []string{"c", "b"}},
		{name: "partial last page", page: 3, pageSize: 2, titles: []string{"a"}},
		{name: "past the end", page: 4, pageSize: 2, titles: []string{}},
		{name: "page zero is first page", page: 0, pageSize: 2, titles: []string{"e", "d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, total, err := repo.ListPosts(ctx, tt.page, tt.pageSize)
			if err != nil {
				t.Fatalf("ListPosts failed: %v", err)
			}
			if total != 5 {
				t.Errorf("total = %d, want 5", total)
			}
			if len(posts) != len(tt.titles) {
				t.Fatalf("len(posts) = %d, want %d", len(posts), len(tt.titles))
			}
			for i, want := range tt.titles {
				if posts[i].Title != want {
					t.Errorf("posts[%d].Title = %q, want %q", i, posts[i].Title, want)
				}
			}
		})
	}
}

func TestMemoryPostRepository_GetPost(t *testing.T) {
	repo := NewMemoryPostRepository()
	ctx := context.Background()

	stored, err := repo.InsertPost(ctx, &domain.Post{Title: "x", Tags: []string{"a"}})
	if err != nil {
		t.Fatalf("InsertPost failed: %v", err)
	}

	got, err := repo.GetPost(ctx, stored.ID)
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "x" {
		t.Errorf("Title = %q, want %q", got.Title, "x")
	}

	// callers must not be able to reach into stored state
	got.Tags[0] = "mutated"
	again, _ := repo.GetPost(ctx, stored.ID)
	if again.Tags[0] != "a" {
		t.Errorf("stored tags were mutated through a returned post")
	}

	if _, err := repo.GetPost(ctx, "not-an-id"); !errors.Is(err, domain.ErrInvalidPostID) {
		t.Errorf("GetPost(malformed) err = %v, want ErrInvalidPostID", err)
	}
	if _, err := repo.GetPost(ctx, "000000000000000000000000"); !errors.Is(err, domain.ErrPostNotFound) {
		t.Errorf("GetPost(missing) err = %v, want ErrPostNotFound", err)
	}
}

func TestMemoryPostRepository_InsertErr(t *testing.T) {
	repo := NewMemoryPostRepository()
	repo.InsertErr = errors.New("write failed")

	if _, err := repo.InsertPost(context.Background(), &domain.Post{Title: "x"}); err == nil {
		t.Fatal("expected InsertPost to fail")
	}

	n, _ := repo.CountPosts(context.Background())
	if n != 0 {
		t.Errorf("CountPosts = %d, want 0", n)
	}
}
