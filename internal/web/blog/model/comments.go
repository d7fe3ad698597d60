package model

import (
	"time"
)

// Comment represents a comment on a post, stored at posts/{postID}/comments/{id}
type Comment struct {
	ID             string    `firestore:"-" json:"id"`
	Content        string    `firestore:"content" json:"content"`
	AuthorID       string    `firestore:"authorId" json:"authorId"`
	AuthorName     string    `firestore:"authorName" json:"authorName"`
	AuthorPhotoURL string    `firestore:"authorPhotoUrl" json:"authorPhotoUrl"`
	CreatedAt      time.Time `firestore:"createdAt" json:"createdAt"`
}

// ModeratedComment is a comment listed together with its post
type ModeratedComment struct {
	*Comment
	PostID    string `json:"postId"`
	PostSlug  string `json:"postSlug"`
	PostTitle string `json:"postTitle"`
}
