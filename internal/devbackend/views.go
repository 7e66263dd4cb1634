package devbackend

// JSON shapes of the backend's responses. Records use snake_case and numeric
// ids; the /me/ and /login/ user record is camelCase.

type authorView struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

type postView struct {
	ID           int        `json:"id"`
	Author       authorView `json:"author"`
	Content      string     `json:"content"`
	Timestamp    string     `json:"timestamp"`
	LikeCount    int        `json:"like_count"`
	CommentCount int        `json:"comment_count"`
	UserHasLiked bool       `json:"user_has_liked"`
}

type commentView struct {
	ID           int           `json:"id"`
	Post         int           `json:"post"`
	Parent       *int          `json:"parent"`
	Author       authorView    `json:"author"`
	Content      string        `json:"content"`
	Timestamp    string        `json:"timestamp"`
	Replies      []commentView `json:"replies"`
	LikeCount    int           `json:"like_count"`
	UserHasLiked bool          `json:"user_has_liked"`
}

type leaderView struct {
	ID          int    `json:"id"`
	Username    string `json:"username"`
	RecentKarma int    `json:"recent_karma"`
	TotalKarma  int    `json:"total_karma"`
}

// meView is what /me/ and /login/ return. The guest record uses a string id.
type meView struct {
	ID          any    `json:"id"`
	Username    string `json:"username"`
	Avatar      string `json:"avatar"`
	TotalKarma  int    `json:"totalKarma"`
	RecentKarma int    `json:"recentKarma"`
}
