package model

import "time"

// Post はブログ記事を表す。
// UserID（所有者）とCreatedAtは作成時に確定し、以後変更されない。
type Post struct {
	ID        string
	UserID    string
	Title     string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time

	// Comments は作成日時の昇順に並んだコメント一覧。
	// 一覧取得・単体取得時にのみ埋められる。
	Comments []*Comment
}

// IsOwnedBy は指定ユーザーが記事の所有者かどうかを返す。
func (p *Post) IsOwnedBy(userID string) bool {
	return p.UserID != "" && p.UserID == userID
}

// Comment は記事に付くコメントを表す。
// PostIDは作成時に確定し、コメントは常に親記事のIDを通して参照される。
type Comment struct {
	ID        string
	PostID    string
	UserID    string
	Content   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsOwnedBy は指定ユーザーがコメントの所有者かどうかを返す。
func (c *Comment) IsOwnedBy(userID string) bool {
	return c.UserID != "" && c.UserID == userID
}

// BelongsTo はコメントが指定記事に属するかどうかを返す。
func (c *Comment) BelongsTo(postID string) bool {
	return c.PostID == postID
}
