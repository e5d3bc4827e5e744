package discord

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// MessagesQueryBuilder builds the channel history query.
type MessagesQueryBuilder struct {
	c         *Client
	channelID snowflake.ID
	batchSize int
	before    snowflake.ID
}

// Messages starts a history query for channel.
func (c *Client) Messages(channelID snowflake.ID) *MessagesQueryBuilder {
	return &MessagesQueryBuilder{c: c, channelID: channelID, batchSize: defBatchSize}
}

// BatchSize sets the page size, the API accepts 1-100.
func (b *MessagesQueryBuilder) BatchSize(n int) *MessagesQueryBuilder {
	if n < 1 || n > defBatchSize {
		n = defBatchSize
	}
	b.batchSize = n
	return b
}

// Before starts the history at the message older than id.
func (b *MessagesQueryBuilder) Before(id snowflake.ID) *MessagesQueryBuilder {
	b.before = id
	return b
}

// Iter returns the page iterator.
func (b *MessagesQueryBuilder) Iter() *MessageIter {
	return &MessageIter{
		c:         b.c,
		channelID: b.channelID,
		batchSize: b.batchSize,
		cursor:    b.before,
	}
}

// MessageIter iterates over the channel history, one page at a time, moving
// back in time.  Iteration stops when the API returns an empty page or an
// error.
type MessageIter struct {
	c         *Client
	channelID snowflake.ID
	batchSize int

	cursor snowflake.ID
	page   []Message
	done   bool
	err    error
}

// Next fetches the next page.  It returns false when there are no more pages
// or if an error occurred, check Err in that case.
func (it *MessageIter) Next(ctx context.Context) bool {
	if it.done || it.err != nil {
		return false
	}
	page, err := it.c.ChannelMessages(ctx, it.channelID, it.cursor, it.batchSize)
	if err != nil {
		it.err = err
		it.page = nil
		return false
	}
	if len(page) == 0 {
		it.done = true
		it.page = nil
		return false
	}
	it.page = page
	// the oldest message on the page, whether it's ours or not.
	it.cursor = page[len(page)-1].ID
	return true
}

// Value returns the current page.
func (it *MessageIter) Value() []Message {
	return it.page
}

// Cursor returns the ID of the oldest message seen so far.
func (it *MessageIter) Cursor() snowflake.ID {
	return it.cursor
}

func (it *MessageIter) Err() error {
	return it.err
}
