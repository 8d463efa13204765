package source

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"social_monitor/internal/model"
	"social_monitor/internal/notify"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockNotifier struct {
	err      error
	messages []notify.Message
}

func (m *mockNotifier) Send(_ context.Context, msg notify.Message) error {
	m.messages = append(m.messages, msg)
	return m.err
}

type mockVideoAPI struct {
	latest      *model.Video
	latestErr   error
	detail      *model.VideoDetail
	detailErr   error
	latestCalls int
	detailCalls int
}

func (m *mockVideoAPI) LatestVideo(_ context.Context, _ string) (*model.Video, error) {
	m.latestCalls++
	return m.latest, m.latestErr
}

func (m *mockVideoAPI) VideoDetail(_ context.Context, _ string) (*model.VideoDetail, error) {
	m.detailCalls++
	return m.detail, m.detailErr
}

func TestYouTubeMissingAPIKey(t *testing.T) {
	notifier := &mockNotifier{}
	c := NewYouTube(nil, notifier, map[string]string{}, discardLogger())

	found, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected no new content")
	}
	if len(notifier.messages) != 0 {
		t.Errorf("expected no notifications, got %d", len(notifier.messages))
	}
}

func TestYouTubeUnchangedVideo(t *testing.T) {
	api := &mockVideoAPI{latest: &model.Video{ID: "abc123", Title: "Old", PublishedAt: "2024-01-02T03:04:05Z"}}
	notifier := &mockNotifier{}
	cache := map[string]string{"youtube_last_video": "abc123"}

	c := NewYouTube(api, notifier, cache, discardLogger())
	found, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected no new content")
	}
	if api.detailCalls != 0 {
		t.Errorf("expected no detail lookup, got %d", api.detailCalls)
	}
	if len(notifier.messages) != 0 {
		t.Errorf("expected no notifications, got %d", len(notifier.messages))
	}
	if diff := cmp.Diff(map[string]string{"youtube_last_video": "abc123"}, cache); diff != "" {
		t.Errorf("cache mismatch (-want +got):\n%s", diff)
	}
}

func TestYouTubeAnnouncesNewVideo(t *testing.T) {
	api := &mockVideoAPI{
		latest: &model.Video{ID: "xyz789", Title: "Hello"},
		detail: &model.VideoDetail{
			ID:           "xyz789",
			Title:        "Hello",
			Description:  "short description",
			ThumbnailURL: "https://img.example.com/hq.jpg",
			ViewCount:    1234567,
		},
	}
	notifier := &mockNotifier{}
	cache := map[string]string{}

	c := NewYouTube(api, notifier, cache, discardLogger())
	found, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatal("expected new content")
	}

	if diff := cmp.Diff(map[string]string{"youtube_last_video": "xyz789"}, cache); diff != "" {
		t.Errorf("cache mismatch (-want +got):\n%s", diff)
	}
	if len(notifier.messages) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notifier.messages))
	}

	msg := notifier.messages[0]
	if !strings.Contains(msg.Body, "https://youtu.be/xyz789") {
		t.Errorf("body missing video url: %q", msg.Body)
	}
	wantEmbed := &notify.Embed{
		Title:       "Hello",
		URL:         "https://youtu.be/xyz789",
		Color:       16711680,
		Description: "short description",
		Image:       &notify.EmbedImage{URL: "https://img.example.com/hq.jpg"},
		Fields:      []notify.EmbedField{{Name: "Views", Value: "1,234,567", Inline: true}},
	}
	if diff := cmp.Diff(wantEmbed, msg.Embed); diff != "" {
		t.Errorf("embed mismatch (-want +got):\n%s", diff)
	}
}

func TestYouTubeDescriptionTruncation(t *testing.T) {
	long := strings.Repeat("d", 250)
	api := &mockVideoAPI{
		latest: &model.Video{ID: "v1"},
		detail: &model.VideoDetail{ID: "v1", Title: "T", Description: long},
	}
	notifier := &mockNotifier{}

	c := NewYouTube(api, notifier, map[string]string{}, discardLogger())
	if _, err := c.Check(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := notifier.messages[0].Embed.Description
	want := strings.Repeat("d", 200) + "..."
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("description mismatch (-want +got):\n%s", diff)
	}
}

func TestYouTubeNotifierFailureKeepsCache(t *testing.T) {
	api := &mockVideoAPI{
		latest: &model.Video{ID: "xyz789"},
		detail: &model.VideoDetail{ID: "xyz789", Title: "Hello"},
	}
	notifier := &mockNotifier{err: errors.New("webhook down")}
	cache := map[string]string{"youtube_last_video": "abc123"}

	c := NewYouTube(api, notifier, cache, discardLogger())
	found, err := c.Check(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected no announcement on notifier failure")
	}
	if diff := cmp.Diff(map[string]string{"youtube_last_video": "abc123"}, cache); diff != "" {
		t.Errorf("cache mismatch (-want +got):\n%s", diff)
	}
}

func TestYouTubeAPIFailuresContained(t *testing.T) {
	tests := []struct {
		name string
		api  *mockVideoAPI
	}{
		{name: "search error", api: &mockVideoAPI{latestErr: errors.New("quota exceeded")}},
		{name: "no videos", api: &mockVideoAPI{}},
		{name: "detail error", api: &mockVideoAPI{latest: &model.Video{ID: "v1"}, detailErr: errors.New("gone")}},
		{name: "detail missing", api: &mockVideoAPI{latest: &model.Video{ID: "v1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			notifier := &mockNotifier{}
			c := NewYouTube(tt.api, notifier, map[string]string{}, discardLogger())

			found, err := c.Check(context.Background())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if found {
				t.Error("expected no new content")
			}
			if len(notifier.messages) != 0 {
				t.Errorf("expected no notifications, got %d", len(notifier.messages))
			}
		})
	}
}
