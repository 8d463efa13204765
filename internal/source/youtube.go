package source

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"

	"social_monitor/internal/model"
	"social_monitor/internal/notify"
)

const (
	youtubeChannelID = "UCs_d8-5LTWCRtsuWsfscBWg"
	youtubeCacheKey  = "youtube_last_video"
	youtubeColor     = 16711680
)

// VideoAPI is the narrow surface of the video platform's API used by the
// checker. The checker never sees the API client's wire types.
type VideoAPI interface {
	// LatestVideo returns the newest video of a channel, or nil when the
	// channel has none.
	LatestVideo(ctx context.Context, channelID string) (*model.Video, error)

	// VideoDetail returns the full record for one video, or nil when the
	// video is gone.
	VideoDetail(ctx context.Context, id string) (*model.VideoDetail, error)
}

// YouTube checks the video platform for a new upload.
type YouTube struct {
	api      VideoAPI // nil when no API credential is configured
	notifier Notifier
	cache    map[string]string
	log      *slog.Logger
}

// NewYouTube creates the video platform checker. api may be nil when no
// credential is configured; Check then degrades to a no-op.
func NewYouTube(api VideoAPI, notifier Notifier, cache map[string]string, log *slog.Logger) *YouTube {
	return &YouTube{api: api, notifier: notifier, cache: cache, log: log}
}

// Name implements Checker.
func (c *YouTube) Name() string { return "YouTube" }

// Check implements Checker.
func (c *YouTube) Check(ctx context.Context) (found bool, err error) {
	c.log.Info("checking youtube for new content")
	defer func() {
		if rec := recover(); rec != nil {
			c.log.Error("youtube check panicked", "panic", rec)
			found, err = false, nil
		}
	}()

	if c.api == nil {
		c.log.Error("youtube api key not configured")
		return false, nil
	}

	video, err := c.api.LatestVideo(ctx, youtubeChannelID)
	if err != nil {
		c.log.Error("youtube check failed", "error", err)
		return false, nil
	}
	if video == nil {
		c.log.Info("no youtube videos found")
		return false, nil
	}

	if c.cache[youtubeCacheKey] == video.ID {
		published := video.PublishedAt
		if len(published) > 10 {
			published = published[:10]
		}
		c.log.Info("nothing new on youtube",
			"title", video.Title,
			"video_id", video.ID,
			"published", published,
			"description", truncate(video.Description, 150))
		return false, nil
	}

	detail, err := c.api.VideoDetail(ctx, video.ID)
	if err != nil {
		c.log.Error("youtube api error", "error", err)
		return false, nil
	}
	if detail == nil {
		return false, nil
	}

	videoURL := "https://youtu.be/" + video.ID
	embed := &notify.Embed{
		Title:       detail.Title,
		URL:         videoURL,
		Color:       youtubeColor,
		Description: truncate(detail.Description, 200),
		Fields: []notify.EmbedField{
			{Name: "Views", Value: humanize.Comma(detail.ViewCount), Inline: true},
		},
	}
	if detail.ThumbnailURL != "" {
		embed.Image = &notify.EmbedImage{URL: detail.ThumbnailURL}
	}

	content := fmt.Sprintf("new video on youtube! \n\"%s\"\n%s", detail.Title, videoURL)
	if err := c.notifier.Send(ctx, notify.Message{Body: content, Embed: embed}); err != nil {
		return false, nil
	}

	c.cache[youtubeCacheKey] = video.ID
	c.log.Info("posted new youtube video", "title", detail.Title)
	return true, nil
}
