package discord

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"runtime/trace"
	"strconv"

	"github.com/disgoorg/snowflake/v2"
)

// Me returns the user that owns the token.
func (c *Client) Me(ctx context.Context) (User, error) {
	var u User
	if _, err := c.do(ctx, http.MethodGet, "/users/@me", nil, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

// ChannelMessages returns at most limit messages of the channel, newest
// first.  If before is not zero, only messages older than before are
// returned.
func (c *Client) ChannelMessages(ctx context.Context, channelID, before snowflake.ID, limit int) ([]Message, error) {
	q := url.Values{"limit": []string{strconv.Itoa(limit)}}
	if before != 0 {
		q.Set("before", before.String())
	}
	var mm []Message
	if _, err := c.do(ctx, http.MethodGet, "/channels/"+channelID.String()+"/messages", q, &mm); err != nil {
		return nil, err
	}
	return mm, nil
}

// DeleteMessage deletes a single message.  It returns the HTTP status code of
// the response, successful deletion is indicated by 204 (No Content).
func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID snowflake.ID) (int, error) {
	ctx, task := trace.NewTask(ctx, "DeleteMessage")
	defer task.End()

	// the cached search results are stale from now on.
	if c.Forget(channelID) {
		trace.Log(ctx, "cache", "cleared")
	}

	status, err := c.do(ctx, http.MethodDelete, "/channels/"+channelID.String()+"/messages/"+messageID.String(), nil, nil)
	if err != nil {
		trace.Logf(ctx, "api", "delete error: %s", err)
		return status, err
	}
	return status, nil
}

// Forget drops the cached search results for the channel.  It returns true
// if there was anything to drop.
func (c *Client) Forget(channelID snowflake.ID) bool {
	return c.cache.Remove(cacheKey(channelID))
}

// cachedSearch is the search result stored in cache.
type cachedSearch struct {
	authorID snowflake.ID
	msgs     []Message
}

// SearchAllMessages walks the channel history from the newest message to the
// oldest and returns all messages authored by authorID in the order they
// were received.  For each page, the callback function will be invoked with
// the number of scanned messages, if not nil.
//
// If one of the API calls fails, it returns messages collected so far along
// with the error.
func (c *Client) SearchAllMessages(ctx context.Context, channelID, authorID snowflake.ID, cb func(n int)) ([]Message, error) {
	ctx, task := trace.NewTask(ctx, "SearchAllMessages")
	defer task.End()

	if cached, err := c.cache.Get(cacheKey(channelID)); err == nil {
		if cs := cached.(cachedSearch); cs.authorID == authorID {
			trace.Log(ctx, "cache", "hit")
			if cb != nil {
				cb(len(cs.msgs))
			}
			return cs.msgs, nil
		}
	}

	var found []Message
	iter := c.Messages(channelID).BatchSize(defBatchSize).Iter()
	for iter.Next(ctx) {
		page := iter.Value()
		found = append(found, filterAuthor(page, authorID)...)
		if cb != nil {
			cb(len(page))
		}
	}
	if err := iter.Err(); err != nil {
		trace.Logf(ctx, "api", "page error: %s", err)
		return found, fmt.Errorf("fetching messages (cursor=%d): %w", uint64(iter.Cursor()), err)
	}

	if err := c.cache.Set(cacheKey(channelID), cachedSearch{authorID: authorID, msgs: found}); err != nil {
		return found, err
	}
	return found, nil
}

// filterAuthor returns messages of the page that were posted by authorID,
// preserving order.
func filterAuthor(page []Message, authorID snowflake.ID) []Message {
	var ret []Message
	for _, m := range page {
		if m.Author.ID == authorID {
			ret = append(ret, m)
		}
	}
	return ret
}
