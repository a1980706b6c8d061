package zenn

// APIResponse represents the Zenn /articles response structure.
type APIResponse struct {
	Articles []Article `json:"articles"`
}

type Article struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Slug        string `json:"slug"`
	Emoji       string `json:"emoji"`
	LikedCount  int    `json:"liked_count"`
	ArticleType string `json:"article_type"`
	PublishedAt string `json:"published_at"`
	Path        string `json:"path"`
	User        User   `json:"user"`
}

type User struct {
	Username       string `json:"username"`
	Name           string `json:"name"`
	AvatarSmallURL string `json:"avatar_small_url"`
}
