package twitter

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Tweet is one record returned by the search endpoint. IDs are decimal
// snowflakes: higher ID means more recent.
type Tweet struct {
	ID                string             `json:"id"`
	AuthorID          string             `json:"author_id"`
	Source            string             `json:"source"`
	ReplySettings     string             `json:"reply_settings"`
	ConversationID    string             `json:"conversation_id"`
	Text              string             `json:"text"`
	CreatedAt         time.Time          `json:"created_at"`
	Lang              string             `json:"lang"`
	PossiblySensitive bool               `json:"possibly_sensitive"`
	InReplyToUserID   string             `json:"in_reply_to_user_id"`
	PublicMetrics     PublicMetrics      `json:"public_metrics"`
	Geo               *Geo               `json:"geo,omitempty"`
	ReferencedTweets  []ReferencedTweet  `json:"referenced_tweets,omitempty"`
	Entities          *Entities          `json:"entities,omitempty"`
	Attachments       *Attachments       `json:"attachments,omitempty"`
}

// PublicMetrics holds the engagement counters.
type PublicMetrics struct {
	RetweetCount int `json:"retweet_count"`
	ReplyCount   int `json:"reply_count"`
	LikeCount    int `json:"like_count"`
	QuoteCount   int `json:"quote_count"`
}

// Geo holds the place reference of a geotagged tweet.
type Geo struct {
	PlaceID string `json:"place_id"`
}

// ReferencedTweet links a tweet to one it replies to, quotes or retweets.
type ReferencedTweet struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Entities holds the parsed-out spans of a tweet's text.
type Entities struct {
	Mentions    []Mention    `json:"mentions,omitempty"`
	URLs        []URLEntity  `json:"urls,omitempty"`
	Hashtags    []Tag        `json:"hashtags,omitempty"`
	Annotations []Annotation `json:"annotations,omitempty"`
	Cashtags    []Tag        `json:"cashtags,omitempty"`
}

// Mention is an @-mention span.
type Mention struct {
	Start    int    `json:"start"`
	End      int    `json:"end"`
	Username string `json:"username"`
	ID       string `json:"id,omitempty"`
}

// URLEntity is a URL span.
type URLEntity struct {
	Start       int    `json:"start"`
	End         int    `json:"end"`
	URL         string `json:"url"`
	ExpandedURL string `json:"expanded_url,omitempty"`
	DisplayURL  string `json:"display_url,omitempty"`
}

// Tag is a hashtag or cashtag span.
type Tag struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Tag   string `json:"tag"`
}

// Annotation is a context annotation span.
type Annotation struct {
	Start          int     `json:"start"`
	End            int     `json:"end"`
	Probability    float64 `json:"probability"`
	Type           string  `json:"type"`
	NormalizedText string  `json:"normalized_text"`
}

// Attachments holds media references.
type Attachments struct {
	MediaKeys []string `json:"media_keys,omitempty"`
}

// Page is one decoded page of search results.
type Page struct {
	Tweets      []Tweet
	ResultCount int
	// NextToken is the continuation cursor. Empty means final page.
	NextToken string
}

// searchResponse is the wire envelope of the search endpoint.
type searchResponse struct {
	Data []Tweet `json:"data"`
	Meta struct {
		ResultCount int    `json:"result_count"`
		NextToken   string `json:"next_token"`
	} `json:"meta"`
}

// APIError is the structured error body the API returns on a rejected
// request. Field errors are kept typed so the user sees the remote
// explanation verbatim.
type APIError struct {
	Title  string       `json:"title"`
	Detail string       `json:"detail"`
	Errors []FieldError `json:"errors"`
}

// FieldError is one per-field problem report.
type FieldError struct {
	Parameters map[string][]string `json:"parameters,omitempty"`
	Message    string              `json:"message"`
}

// Render flattens the error body into the diagnostic text shown to the user.
func (e *APIError) Render() string {
	var parts []string
	if e.Title != "" {
		parts = append(parts, e.Title)
	}
	if e.Detail != "" {
		parts = append(parts, e.Detail)
	}
	for _, fe := range e.Errors {
		if fe.Message != "" {
			parts = append(parts, fe.Message)
		}
	}
	return strings.Join(parts, "; ")
}

// RateLimitState is the transient quota picture reported by response
// headers. Never persisted; rebuilt from every response.
type RateLimitState struct {
	// Remaining is the reported quota headroom, -1 when the header is absent.
	Remaining int
	// Reset is the instant the primary quota window replenishes.
	Reset time.Time
}

// parseRateLimit extracts the rate-limit state from response headers.
func parseRateLimit(h http.Header) RateLimitState {
	state := RateLimitState{Remaining: -1}
	if v := h.Get("x-rate-limit-remaining"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			state.Remaining = n
		}
	}
	if v := h.Get("x-rate-limit-reset"); v != "" {
		if epoch, err := strconv.ParseInt(v, 10, 64); err == nil {
			state.Reset = time.Unix(epoch, 0)
		}
	}
	return state
}

// CompareIDs orders two tweet IDs. Snowflake IDs are decimal integers, so
// numeric comparison is authoritative; non-numeric IDs fall back to
// length-then-lexicographic order, which matches numeric order for decimal
// strings without leading zeros.
func CompareIDs(a, b string) int {
	na, errA := strconv.ParseUint(a, 10, 64)
	nb, errB := strconv.ParseUint(b, 10, 64)
	if errA == nil && errB == nil {
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		default:
			return 0
		}
	}
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
