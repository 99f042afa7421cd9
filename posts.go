package sdk

import (
	"context"
	"fmt"
	"strings"

	"github.com/behavioguard/behavioguard-go/routes"
)

// Post is a feed entry as the server renders it.
type Post struct {
	ID        int64  `json:"id"`
	Author    string `json:"author"`
	Avatar    string `json:"avatar"`
	Content   string `json:"content"`
	Likes     int    `json:"likes"`
	Time      string `json:"time"`
	CreatedAt string `json:"created_at"`
}

// PostsClient provides the feed operations. All calls require credentials and
// go through the transparent refresh path.
type PostsClient struct {
	client *Client
}

// List returns the feed, newest first.
func (p *PostsClient) List(ctx context.Context) ([]Post, error) {
	var resp struct {
		Posts []Post `json:"posts"`
	}
	if err := p.client.getJSON(ctx, routes.Posts, &resp); err != nil {
		return nil, err
	}
	return resp.Posts, nil
}

// Create publishes a post. The behavioral telemetry captured while composing
// is forwarded untouched for server-side risk analysis.
func (p *PostsClient) Create(ctx context.Context, content string, telemetry BehavioralTelemetry) (Post, error) {
	if strings.TrimSpace(content) == "" {
		return Post{}, ValidationError{Field: "content", Reason: "must not be blank"}
	}
	if telemetry == nil {
		telemetry = BehavioralTelemetry{}
	}
	payload := struct {
		Content        string              `json:"content"`
		BehavioralData BehavioralTelemetry `json:"behavioral_data"`
	}{Content: content, BehavioralData: telemetry}
	var resp struct {
		Post Post `json:"post"`
	}
	if err := p.client.postJSON(ctx, routes.Posts, payload, &resp); err != nil {
		return Post{}, err
	}
	return resp.Post, nil
}

// Like likes a post and returns the new like count.
func (p *PostsClient) Like(ctx context.Context, postID int64) (int, error) {
	var resp struct {
		Likes int `json:"likes"`
	}
	path := fmt.Sprintf(routes.PostLike, postID)
	if err := p.client.postJSON(ctx, path, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Likes, nil
}
