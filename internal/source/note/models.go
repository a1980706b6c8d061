package note

import "encoding/json"

// searchResponse represents the (unofficial) note.com search API
// response structure. Field shapes are defensive: the API is not a
// published contract and numeric ids sometimes arrive as strings.
type searchResponse struct {
	Data struct {
		Notes struct {
			Contents []Note `json:"contents"`
		} `json:"notes"`
	} `json:"data"`
}

type Note struct {
	ID           json.Number `json:"id"`
	Key          string      `json:"key"`
	Name         string      `json:"name"`
	Description  *string     `json:"description"`
	Eyecatch     string      `json:"eyecatch"`
	NoteURL      string      `json:"noteUrl"`
	Price        int         `json:"price"`
	LikeCount    int         `json:"like_count"`
	CommentCount int         `json:"comment_count"`
	PublishAt    string      `json:"publish_at"`
	CreatedAt    string      `json:"created_at"`
	Hashtags     []Hashtag   `json:"hashtags"`
	User         *NoteUser   `json:"user"`
}

type Hashtag struct {
	Name string `json:"name"`
}

type NoteUser struct {
	ID                   json.Number `json:"id"`
	URLName              string      `json:"urlname"`
	Nickname             string      `json:"nickname"`
	Name                 string      `json:"name"`
	UserProfileImagePath string      `json:"user_profile_image_path"`
}
