package model

import "time"

// Post はブログ投稿を表す。
// 投稿者との紐付けは持たない（公開掲示板として扱う）。
type Post struct {
	ID        int64
	Title     string
	Content   string
	Published bool
	CreatedAt time.Time
}
