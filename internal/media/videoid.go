package media

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// ErrInvalidVideoRef is returned by [ParseVideoID] for input that is not
// a YouTube video ID or URL.
var ErrInvalidVideoRef = errors.New("not a YouTube video reference")

var videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// idPathPrefixes are URL paths whose next segment is the video ID.
var idPathPrefixes = []string{"/embed/", "/v/", "/shorts/", "/live/"}

// ParseVideoID extracts the 11-character video ID from a bare ID or any
// common YouTube URL shape, including youtu.be short links, embed and
// shorts paths, mobile and music subdomains, regional domains such as
// youtube.co.uk, and URLs given without a scheme.
func ParseVideoID(input string) (string, error) {
	s := strings.TrimSpace(input)
	if videoIDRe.MatchString(s) {
		return s, nil
	}
	invalid := fmt.Errorf("%w: %q", ErrInvalidVideoRef, input)

	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", invalid
	}

	var id string
	switch hostKind(u.Hostname()) {
	case hostShort:
		id, _, _ = strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
	case hostYouTube:
		id = idFromPath(u)
	default:
		return "", invalid
	}

	if !videoIDRe.MatchString(id) {
		return "", invalid
	}
	return id, nil
}

// CanonicalURL returns the watch URL for a video ID.
func CanonicalURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}

func idFromPath(u *url.URL) string {
	if u.Path == "/watch" || u.Path == "/watch/" {
		return u.Query().Get("v")
	}
	for _, prefix := range idPathPrefixes {
		if rest, ok := strings.CutPrefix(u.Path, prefix); ok {
			id, _, _ := strings.Cut(rest, "/")
			return id
		}
	}
	return ""
}

type host int

const (
	hostOther host = iota
	hostYouTube
	hostShort
)

// hostKind classifies a hostname. The registrable domain is found with
// the public suffix list so every regional YouTube domain is accepted
// without enumerating them.
func hostKind(h string) host {
	h = strings.TrimSuffix(strings.ToLower(h), ".")
	if h == "" {
		return hostOther
	}
	etld1, err := publicsuffix.EffectiveTLDPlusOne(h)
	if err != nil {
		return hostOther
	}
	if etld1 == "youtu.be" {
		if h == etld1 || h == "www."+etld1 {
			return hostShort
		}
		return hostOther
	}

	suffix, _ := publicsuffix.PublicSuffix(h)
	name := strings.TrimSuffix(etld1, "."+suffix)
	if name != "youtube" && name != "youtube-nocookie" {
		return hostOther
	}

	switch strings.TrimSuffix(h, etld1) {
	case "", "www.", "m.", "music.":
		return hostYouTube
	}
	return hostOther
}
