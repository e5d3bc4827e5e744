package wipe

import (
	"context"
	"errors"

	"github.com/disgoorg/snowflake/v2"
	"github.com/dustin/go-humanize"
)

// Batch wipes the channels one after another.  Errors in individual
// channels are logged and the channel is skipped, unless the user has
// cancelled the operation or the context is done.
func (w *Wiper) Batch(ctx context.Context, ids []snowflake.ID) error {
	var total int
	for _, id := range ids {
		res, err := w.Wipe(ctx, id)
		total += res.Deleted
		if err != nil {
			if errors.Is(err, ErrCancelled) || ctx.Err() != nil {
				return err
			}
			w.log.Printf("SKIPPED: channel %s: %s", id, err)
			continue
		}
		w.log.Printf("OK: channel %s: messages deleted: %s of %s", id, humanize.Comma(int64(res.Deleted)), humanize.Comma(int64(res.Found)))
	}
	if len(ids) > 1 {
		w.log.Printf("Total messages deleted: %s", humanize.Comma(int64(total)))
	}
	return nil
}
