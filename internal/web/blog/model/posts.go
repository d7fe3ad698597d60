package model

import (
	"time"
)

// Category of a post
type Category string

const (
	// CategoryFinance finance posts
	CategoryFinance Category = "finance"
	// CategoryEconomy economy posts
	CategoryEconomy Category = "economy"
)

// Categories every valid category
var Categories = []Category{CategoryFinance, CategoryEconomy}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Post blog posts, stored at posts/{id}
type Post struct {
	ID             string   `firestore:"-" json:"id"`
	Slug           string   `firestore:"slug" json:"slug"`
	Title          string   `firestore:"title" json:"title"`
	Excerpt        string   `firestore:"excerpt" json:"excerpt"`
	Content        string   `firestore:"content" json:"content"`
	Category       Category `firestore:"category" json:"category"`
	Tags           []string `firestore:"tags" json:"tags"`
	CoverImageURL  string   `firestore:"coverImageUrl" json:"coverImageUrl"`
	AttachmentURL  string   `firestore:"attachmentUrl" json:"attachmentUrl,omitempty"`
	AttachmentName string   `firestore:"attachmentName" json:"attachmentName,omitempty"`
	Published      bool     `firestore:"published" json:"published"`
	AuthorName     string   `firestore:"authorName" json:"authorName"`
	// ViewCount and CommentCount are denormalized counters,
	// only ever changed through atomic increments or reconciliation
	ViewCount    int64 `firestore:"viewCount" json:"viewCount"`
	CommentCount int64 `firestore:"commentCount" json:"commentCount"`

	CreatedAt time.Time `firestore:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `firestore:"updatedAt" json:"updatedAt"`
	// PublishedAt is set once, the first time the post is published
	PublishedAt *time.Time `firestore:"publishedAt" json:"publishedAt"`
}

// PostView is a post prepared for reading
type PostView struct {
	*Post
	HTML string     `json:"html"`
	Menu []MenuItem `json:"menu"`
}

// MenuItem is one heading of a post outline
type MenuItem struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Children []MenuItem `json:"children,omitempty"`
}

// AdminStats dashboard counters
type AdminStats struct {
	TotalPosts     int64 `json:"totalPosts"`
	PublishedPosts int64 `json:"publishedPosts"`
	DraftPosts     int64 `json:"draftPosts"`
	TotalComments  int64 `json:"totalComments"`
	TotalViews     int64 `json:"totalViews"`
}
