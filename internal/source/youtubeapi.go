package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"social_monitor/internal/model"
)

const youtubeAPIBase = "https://www.googleapis.com/youtube/v3"

// YouTubeAPI implements VideoAPI over the platform's REST surface.
type YouTubeAPI struct {
	key   string
	fetch Getter
}

// NewYouTubeAPI creates a VideoAPI client with the given credential.
func NewYouTubeAPI(key string, fetch Getter) *YouTubeAPI {
	return &YouTubeAPI{key: key, fetch: fetch}
}

type searchResponse struct {
	Items []struct {
		ID struct {
			VideoID string `json:"videoId"`
		} `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			PublishedAt string `json:"publishedAt"`
		} `json:"snippet"`
	} `json:"items"`
}

type videosResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Snippet struct {
			Title       string `json:"title"`
			Description string `json:"description"`
			Thumbnails  struct {
				High struct {
					URL string `json:"url"`
				} `json:"high"`
			} `json:"thumbnails"`
		} `json:"snippet"`
		Statistics struct {
			ViewCount string `json:"viewCount"`
		} `json:"statistics"`
	} `json:"items"`
}

// LatestVideo implements VideoAPI.
func (a *YouTubeAPI) LatestVideo(ctx context.Context, channelID string) (*model.Video, error) {
	q := url.Values{}
	q.Set("part", "snippet")
	q.Set("channelId", channelID)
	q.Set("maxResults", "1")
	q.Set("order", "date")
	q.Set("type", "video")
	q.Set("key", a.key)

	body, err := a.fetch.Get(ctx, youtubeAPIBase+"/search?"+q.Encode(), nil, 0)
	if err != nil {
		return nil, fmt.Errorf("search videos: %w", err)
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse search response: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	item := resp.Items[0]
	return &model.Video{
		ID:          item.ID.VideoID,
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
		PublishedAt: item.Snippet.PublishedAt,
	}, nil
}

// VideoDetail implements VideoAPI.
func (a *YouTubeAPI) VideoDetail(ctx context.Context, id string) (*model.VideoDetail, error) {
	q := url.Values{}
	q.Set("part", "snippet,statistics")
	q.Set("id", id)
	q.Set("key", a.key)

	body, err := a.fetch.Get(ctx, youtubeAPIBase+"/videos?"+q.Encode(), nil, 0)
	if err != nil {
		return nil, fmt.Errorf("get video detail: %w", err)
	}

	var resp videosResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse videos response: %w", err)
	}
	if len(resp.Items) == 0 {
		return nil, nil
	}

	item := resp.Items[0]
	views, _ := strconv.ParseInt(item.Statistics.ViewCount, 10, 64)
	return &model.VideoDetail{
		ID:           id,
		Title:        item.Snippet.Title,
		Description:  item.Snippet.Description,
		ThumbnailURL: item.Snippet.Thumbnails.High.URL,
		ViewCount:    views,
	}, nil
}
