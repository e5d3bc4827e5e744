// Command testui emulates the work of the Text UI for making screenshots
package main

import (
	"context"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/rusq/dlog"

	"github.com/rusq/wipemychannel/internal/discord"
	"github.com/rusq/wipemychannel/internal/tui"
	"github.com/rusq/wipemychannel/internal/wipe"
)

const (
	fakeSearchDelay = 200 * time.Millisecond
	fakeDeleteDelay = 50 * time.Millisecond
	maxFakeMessages = 500
	pageSize        = 100
)

var me = discord.User{
	ID:         snowflake.New(time.Now()),
	Username:   "arnie",
	GlobalName: "Dutch",
}

func main() {
	ctx := context.Background()
	d, _ := wipe.DelaysMs(0, 100)
	app := tui.New(ctx, FakeDiscord{}, me, d)

	if err := app.Run(ctx); err != nil {
		dlog.Fatal(err)
	}
}

// FakeDiscord pretends to be a channel with a random number of the user's
// messages, some of them are system messages.
type FakeDiscord struct{}

func (FakeDiscord) SearchAllMessages(ctx context.Context, channelID, authorID snowflake.ID, cb func(n int)) ([]discord.Message, error) {
	var n = rand.IntN(maxFakeMessages)
	var ret = make([]discord.Message, 0, n)
	id := snowflake.New(time.Now())
	for i := 0; i < n; i++ {
		id--
		ret = append(ret, discord.Message{
			ID:        id,
			ChannelID: channelID,
			Type:      randType(),
			Author:    me,
			Content:   "get to the chopper",
		})
		if (i+1)%pageSize == 0 {
			cb(pageSize)
			if err := sleep(ctx, fakeSearchDelay); err != nil {
				return ret, err
			}
		}
	}
	cb(n % pageSize)
	return ret, nil
}

func (FakeDiscord) DeleteMessage(ctx context.Context, channelID, messageID snowflake.ID) (int, error) {
	if err := sleep(ctx, fakeDeleteDelay); err != nil {
		return 0, err
	}
	if messageID%17 == 0 {
		return http.StatusBadRequest, &discord.APIError{
			StatusCode: http.StatusBadRequest,
			Code:       discord.CodeSystemMessage,
			Message:    "Cannot execute action on a system message",
		}
	}
	return http.StatusNoContent, nil
}

func randType() int {
	if rand.IntN(20) == 0 {
		return 7 // member join
	}
	return 0
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
