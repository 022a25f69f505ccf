package domain

import "time"

// Post is a blog entry authored by the administrator. Date is the
// human-readable publication date stamped when the post is created; it is
// never changed by edits.
type Post struct {
	ID        int64
	Title     string
	Subtitle  string
	Date      string
	Body      string
	ImageURL  string
	AuthorID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Comment is a reader remark attached to a single post. Comments are
// write-once: there is no edit or delete operation for them.
type Comment struct {
	ID        int64
	PostID    int64
	AuthorID  int64
	Body      string
	CreatedAt time.Time
}
