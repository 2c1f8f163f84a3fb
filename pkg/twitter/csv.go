package twitter

import (
	"encoding/json"
	"strconv"
	"time"
)

// Column indexes into a persisted row. The checkpoint fold only needs the
// identifier and creation time.
const (
	IDIndex        = 0
	CreatedAtIndex = 6
)

// columns is the exact persisted column set and order. Nested fields are
// serialized as JSON text into the _json columns.
var columns = []string{
	"id",
	"author_id",
	"source",
	"reply_settings",
	"conversation_id",
	"text",
	"created_at",
	"lang",
	"possibly_sensitive",
	"in_reply_to_user_id",
	"retweet_count",
	"reply_count",
	"like_count",
	"quote_count",
	"place_id",
	"referenced_tweets_json",
	"mentions_json",
	"urls_json",
	"hashtags_json",
	"annotations_json",
	"cashtags_json",
	"media_keys_json",
}

// Columns returns the persisted column set in order.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// CreatedAtFormat is how creation times are persisted.
const CreatedAtFormat = time.RFC3339

// ToRow flattens a tweet into the persisted column order. Missing values
// are filled with the empty null marker.
func ToRow(t Tweet) []string {
	placeID := ""
	if t.Geo != nil {
		placeID = t.Geo.PlaceID
	}

	var mentions, urls, hashtags, annotations, cashtags interface{}
	if t.Entities != nil {
		if len(t.Entities.Mentions) > 0 {
			mentions = t.Entities.Mentions
		}
		if len(t.Entities.URLs) > 0 {
			urls = t.Entities.URLs
		}
		if len(t.Entities.Hashtags) > 0 {
			hashtags = t.Entities.Hashtags
		}
		if len(t.Entities.Annotations) > 0 {
			annotations = t.Entities.Annotations
		}
		if len(t.Entities.Cashtags) > 0 {
			cashtags = t.Entities.Cashtags
		}
	}

	var referenced, mediaKeys interface{}
	if len(t.ReferencedTweets) > 0 {
		referenced = t.ReferencedTweets
	}
	if t.Attachments != nil && len(t.Attachments.MediaKeys) > 0 {
		mediaKeys = t.Attachments.MediaKeys
	}

	return []string{
		t.ID,
		t.AuthorID,
		t.Source,
		t.ReplySettings,
		t.ConversationID,
		t.Text,
		t.CreatedAt.UTC().Format(CreatedAtFormat),
		t.Lang,
		strconv.FormatBool(t.PossiblySensitive),
		t.InReplyToUserID,
		strconv.Itoa(t.PublicMetrics.RetweetCount),
		strconv.Itoa(t.PublicMetrics.ReplyCount),
		strconv.Itoa(t.PublicMetrics.LikeCount),
		strconv.Itoa(t.PublicMetrics.QuoteCount),
		placeID,
		marshalJSON(referenced),
		marshalJSON(mentions),
		marshalJSON(urls),
		marshalJSON(hashtags),
		marshalJSON(annotations),
		marshalJSON(cashtags),
		marshalJSON(mediaKeys),
	}
}

// RowCreatedAt parses the creation time out of a persisted row.
func RowCreatedAt(row []string) (time.Time, error) {
	return time.Parse(CreatedAtFormat, row[CreatedAtIndex])
}

func marshalJSON(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
