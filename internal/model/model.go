// Package model defines the domain types used across the application.
package model

import "time"

// Status classifies the outcome of checking one source during a run.
type Status string

// Per-source run outcomes.
const (
	StatusNewContent   Status = "✓ success"
	StatusNoNewContent Status = "- no new content"
	StatusFailed       Status = "✗ failed"
)

// Outcome is the recorded result of one source check within a run.
type Outcome struct {
	Source string
	Status Status
	Err    string
}

// Video is the newest item returned by the video platform's search surface.
type Video struct {
	ID          string
	Title       string
	Description string
	PublishedAt string
}

// VideoDetail carries the full item record used to render an announcement.
type VideoDetail struct {
	ID           string
	Title        string
	Description  string
	ThumbnailURL string
	ViewCount    int64
}

// Post is a photo-platform item normalized from whichever extraction
// strategy produced it. Only Shortcode is guaranteed to be set.
type Post struct {
	Shortcode  string
	Caption    string
	IsVideo    bool
	DisplayURL string
	LikeCount  int
	TakenAt    *time.Time
}

// URL returns the canonical permalink for the post.
func (p *Post) URL() string {
	return "https://www.instagram.com/p/" + p.Shortcode + "/"
}

// Type returns the presentation label for the post.
func (p *Post) Type() string {
	if p.IsVideo {
		return "reel"
	}
	return "post"
}
