package qiita

// Item represents one entry of the Qiita /items response.
type Item struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Body          string  `json:"body"`
	LikesCount    int     `json:"likes_count"`
	StocksCount   int     `json:"stocks_count"`
	CommentsCount int     `json:"comments_count"`
	Tags          []Tag   `json:"tags"`
	User          User    `json:"user"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

type Tag struct {
	Name string `json:"name"`
}

type User struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ProfileImageURL string `json:"profile_image_url"`
}
