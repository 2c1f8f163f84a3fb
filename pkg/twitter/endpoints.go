package twitter

import (
	"net/url"
	"strconv"
)

const (
	// RecentSearchPath serves the last seven days.
	RecentSearchPath = "/2/tweets/search/recent"
	// ArchiveSearchPath serves the full archive.
	ArchiveSearchPath = "/2/tweets/search/all"
)

// tweetFields lists every tweet field the persisted column set needs.
const tweetFields = "id,author_id,source,reply_settings,conversation_id,text," +
	"created_at,lang,possibly_sensitive,in_reply_to_user_id,public_metrics," +
	"geo,referenced_tweets,entities,attachments"

// SearchParams are the parameters of one paginated search.
type SearchParams struct {
	Query     string
	StartTime string
	EndTime   string
	// MaxResults must be in [10, 500]; validated before any request.
	MaxResults int
	// Archive selects the full-archive endpoint.
	Archive bool
}

// searchURL builds the request URL for one page. nextToken is omitted on the
// first page.
func searchURL(baseURL string, p SearchParams, nextToken string) string {
	path := RecentSearchPath
	if p.Archive {
		path = ArchiveSearchPath
	}

	q := url.Values{}
	q.Set("query", p.Query)
	q.Set("start_time", p.StartTime)
	q.Set("end_time", p.EndTime)
	q.Set("max_results", strconv.Itoa(p.MaxResults))
	q.Set("tweet.fields", tweetFields)
	if nextToken != "" {
		q.Set("next_token", nextToken)
	}

	return baseURL + path + "?" + q.Encode()
}
