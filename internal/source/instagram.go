package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"social_monitor/internal/model"
	"social_monitor/internal/notify"
)

const (
	instagramUsername   = "gatlin"
	instagramProfileURL = "https://www.instagram.com/" + instagramUsername + "/"
	instagramCacheKey   = "instagram_last_post"
	instagramColor      = 14315734
	instagramAppID      = "936619743392459"

	mobileUserAgent  = "Mozilla/5.0 (iPhone; CPU iPhone OS 15_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/15.0 Mobile/15E148 Safari/604.1"
	desktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	scrapeTimeout = 15 * time.Second
)

// errInconclusive marks a strategy that could not produce a definitive
// result; the checker falls through to the next one.
var errInconclusive = errors.New("inconclusive")

var (
	sharedDataRe = regexp.MustCompile(`window\._sharedData = ({.*?});`)
	permalinkRe  = regexp.MustCompile(`/p/([A-Za-z0-9_-]+)/`)
	mediaIDRe    = regexp.MustCompile(`/media/(\d+)`)
	photoFileRe  = regexp.MustCompile(`^https://.*\.jpg`)
)

// Instagram checks the photo platform for a new post. The platform has no
// stable public API, so an ordered list of extraction strategies is tried
// and the first definitive result wins.
type Instagram struct {
	fetch    Getter
	notifier Notifier
	cache    map[string]string
	log      *slog.Logger
	sleep    func(time.Duration)
}

// NewInstagram creates the photo platform checker.
func NewInstagram(fetch Getter, notifier Notifier, cache map[string]string, log *slog.Logger) *Instagram {
	return &Instagram{
		fetch:    fetch,
		notifier: notifier,
		cache:    cache,
		log:      log,
		sleep:    time.Sleep,
	}
}

// Name implements Checker.
func (c *Instagram) Name() string { return "Instagram" }

// Check implements Checker.
func (c *Instagram) Check(ctx context.Context) (found bool, err error) {
	c.log.Info("checking instagram for new content")
	defer func() {
		if rec := recover(); rec != nil {
			c.log.Error("instagram check panicked", "panic", rec)
			found, err = false, nil
		}
	}()

	// A short random pause before hitting the platform's own endpoints
	// lowers the chance of being flagged as automated traffic.
	c.sleep(time.Duration((3 + rand.Float64()*4) * float64(time.Second)))

	strategies := []struct {
		name string
		fn   func(context.Context) (*model.Post, error)
	}{
		{"web_json", c.webJSON},
		{"web_html", c.webHTML},
		{"mirror", c.mirror},
		{"rss_bridge", c.rssBridge},
	}

	for _, s := range strategies {
		post, err := s.fn(ctx)
		if err != nil {
			if errors.Is(err, errInconclusive) {
				c.log.Warn("instagram method inconclusive", "method", s.name, "error", err)
			} else {
				c.log.Warn("instagram method failed", "method", s.name, "error", err)
			}
			continue
		}
		return c.processPost(ctx, post), nil
	}

	c.log.Error("all instagram scraping methods failed")
	return false, nil
}

func webHeaders() map[string]string {
	return map[string]string{
		"User-Agent":       mobileUserAgent,
		"Accept":           "*/*",
		"Accept-Language":  "en-US,en;q=0.9",
		"X-Requested-With": "XMLHttpRequest",
	}
}

// webJSON fetches the profile's internal JSON endpoint with a mobile client
// identity and the app-identifier header.
func (c *Instagram) webJSON(ctx context.Context) (*model.Post, error) {
	headers := webHeaders()
	headers["X-IG-App-ID"] = instagramAppID

	url := "https://www.instagram.com/api/v1/users/web_profile_info/?username=" + instagramUsername
	body, err := c.fetch.Get(ctx, url, headers, scrapeTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: profile json: %v", errInconclusive, err)
	}

	var resp struct {
		Data struct {
			User struct {
				Timeline timeline `json:"edge_owner_to_timeline_media"`
			} `json:"user"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: parse profile json: %v", errInconclusive, err)
	}

	edges := resp.Data.User.Timeline.Edges
	if len(edges) == 0 {
		return nil, fmt.Errorf("%w: no posts in profile json", errInconclusive)
	}
	return edges[0].Node.toPost(), nil
}

// webHTML fetches the rendered profile page with the same identity minus the
// app-identifier header. Script-marker extraction is tried first, then the
// first profile-permalink hyperlink.
func (c *Instagram) webHTML(ctx context.Context) (*model.Post, error) {
	body, err := c.fetch.Get(ctx, instagramProfileURL, webHeaders(), scrapeTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: profile html: %v", errInconclusive, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse profile html: %v", errInconclusive, err)
	}

	if post := extractSharedData(doc); post != nil {
		return post, nil
	}

	var shortcode string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if m := permalinkRe.FindStringSubmatch(href); m != nil {
			shortcode = m[1]
			return false
		}
		return true
	})
	if shortcode != "" {
		return &model.Post{Shortcode: shortcode}, nil
	}

	return nil, fmt.Errorf("%w: no post markers in profile html", errInconclusive)
}

// extractSharedData pulls the newest post out of an embedded script block
// carrying the timeline JSON marker, or returns nil.
func extractSharedData(doc *goquery.Document) *model.Post {
	var post *model.Post
	doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := sel.Text()
		if !strings.Contains(text, "edge_owner_to_timeline_media") {
			return true
		}
		m := sharedDataRe.FindStringSubmatch(text)
		if m == nil {
			return true
		}

		var shared struct {
			EntryData struct {
				ProfilePage []struct {
					GraphQL struct {
						User struct {
							Timeline timeline `json:"edge_owner_to_timeline_media"`
						} `json:"user"`
					} `json:"graphql"`
				} `json:"ProfilePage"`
			} `json:"entry_data"`
		}
		if err := json.Unmarshal([]byte(m[1]), &shared); err != nil {
			return true
		}
		pages := shared.EntryData.ProfilePage
		if len(pages) == 0 || len(pages[0].GraphQL.User.Timeline.Edges) == 0 {
			return true
		}
		post = pages[0].GraphQL.User.Timeline.Edges[0].Node.toPost()
		return false
	})
	return post
}

// mirror fetches a third-party mirror page for the profile and extracts the
// newest item's numeric media id and image by markup pattern.
func (c *Instagram) mirror(ctx context.Context) (*model.Post, error) {
	url := "https://www.picuki.com/profile/" + instagramUsername
	body, err := c.fetch.Get(ctx, url, map[string]string{"User-Agent": desktopUserAgent}, scrapeTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: mirror page: %v", errInconclusive, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse mirror page: %v", errInconclusive, err)
	}

	var postID string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if m := mediaIDRe.FindStringSubmatch(href); m != nil {
			postID = m[1]
			return false
		}
		return true
	})
	if postID == "" {
		return nil, fmt.Errorf("%w: no media links on mirror page", errInconclusive)
	}

	var imageURL string
	doc.Find("img[src]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		src, _ := sel.Attr("src")
		if photoFileRe.MatchString(src) {
			imageURL = src
			return false
		}
		return true
	})

	return &model.Post{Shortcode: postID, DisplayURL: imageURL}, nil
}

// rssBridge fetches an RSS rendition of the profile from a feed bridge.
func (c *Instagram) rssBridge(ctx context.Context) (*model.Post, error) {
	url := "https://rsshub.app/picuki/profile/" + instagramUsername
	body, err := c.fetch.Get(ctx, url, map[string]string{"User-Agent": desktopUserAgent}, scrapeTimeout)
	if err != nil {
		return nil, fmt.Errorf("%w: bridge feed: %v", errInconclusive, err)
	}

	feed, err := gofeed.NewParser().ParseString(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: parse bridge feed: %v", errInconclusive, err)
	}
	if len(feed.Items) == 0 {
		return nil, fmt.Errorf("%w: empty bridge feed", errInconclusive)
	}

	item := feed.Items[0]
	m := permalinkRe.FindStringSubmatch(item.Link)
	if m == nil {
		return nil, fmt.Errorf("%w: no permalink in bridge item %q", errInconclusive, item.Link)
	}

	post := &model.Post{Shortcode: m[1], Caption: item.Title}
	if len(item.Enclosures) > 0 {
		post.DisplayURL = item.Enclosures[0].URL
	}
	if item.PublishedParsed != nil {
		post.TakenAt = item.PublishedParsed
	}
	return post, nil
}

// processPost runs the shared pipeline: compare against the cache, render
// the card, notify, and only then update the cache entry.
func (c *Instagram) processPost(ctx context.Context, post *model.Post) bool {
	if post == nil || post.Shortcode == "" {
		c.log.Warn("could not extract instagram post id")
		return false
	}

	if c.cache[instagramCacheKey] == post.Shortcode {
		date := "unknown date"
		if post.TakenAt != nil {
			date = post.TakenAt.Format("2006-01-02 15:04")
		}
		c.log.Info("no new instagram content",
			"type", post.Type(), "shortcode", post.Shortcode, "date", date)
		if post.Caption != "" {
			c.log.Info("latest caption", "text", truncate(post.Caption, 150))
		}
		return false
	}

	description := truncate(post.Caption, 300)
	if description == "" {
		description = "New Instagram post"
	}
	title := "Instagram Post"
	if post.IsVideo {
		title = "Instagram Reel"
	}

	embed := &notify.Embed{
		Title:       title,
		URL:         post.URL(),
		Color:       instagramColor,
		Description: description,
		Author:      &notify.EmbedAuthor{Name: instagramUsername, URL: instagramProfileURL},
	}
	if post.DisplayURL != "" {
		embed.Image = &notify.EmbedImage{URL: post.DisplayURL}
	}

	content := fmt.Sprintf("new %s on instagram!\n%s", post.Type(), post.URL())
	if err := c.notifier.Send(ctx, notify.Message{Body: content, Embed: embed}); err != nil {
		return false
	}

	c.cache[instagramCacheKey] = post.Shortcode
	c.log.Info("posted new instagram "+post.Type(), "shortcode", post.Shortcode)
	return true
}

// timeline mirrors the platform's edge/node JSON shape.
type timeline struct {
	Edges []struct {
		Node timelineNode `json:"node"`
	} `json:"edges"`
}

type timelineNode struct {
	Shortcode  string `json:"shortcode"`
	IsVideo    bool   `json:"is_video"`
	DisplayURL string `json:"display_url"`
	TakenAt    int64  `json:"taken_at_timestamp"`
	Likes      struct {
		Count int `json:"count"`
	} `json:"edge_media_preview_like"`
	Caption struct {
		Edges []struct {
			Node struct {
				Text string `json:"text"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"edge_media_to_caption"`
}

func (n timelineNode) toPost() *model.Post {
	post := &model.Post{
		Shortcode:  n.Shortcode,
		IsVideo:    n.IsVideo,
		DisplayURL: n.DisplayURL,
		LikeCount:  n.Likes.Count,
	}
	if len(n.Caption.Edges) > 0 {
		post.Caption = n.Caption.Edges[0].Node.Text
	}
	if n.TakenAt > 0 {
		t := time.Unix(n.TakenAt, 0)
		post.TakenAt = &t
	}
	return post
}
