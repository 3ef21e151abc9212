package transport

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tele "gopkg.in/telebot.v4"

	tghelpers "github.com/gogermany/gobot/core/telegram/helpers"
	"github.com/gogermany/gobot/core/telegram/netutil"
	"github.com/gogermany/gobot/internal/membership"
)

type fakeBot struct {
	sendErrs  []error
	sendErr   error
	editErr   error
	copyErr   error
	role      tele.MemberStatus
	sentTo    []string
	copied    []string
	lastOpts  *tele.SendOptions
	deleted   []tele.StoredMessage
	memberErr error
}

func (f *fakeBot) Send(to tele.Recipient, _ interface{}, opts ...interface{}) (*tele.Message, error) {
	f.sentTo = append(f.sentTo, to.Recipient())
	if len(opts) > 0 {
		f.lastOpts, _ = opts[0].(*tele.SendOptions)
	}
	if len(f.sendErrs) > 0 {
		err := f.sendErrs[0]
		f.sendErrs = f.sendErrs[1:]
		return nil, err
	}
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &tele.Message{ID: 77}, nil
}

func (f *fakeBot) Edit(tele.Editable, interface{}, ...interface{}) (*tele.Message, error) {
	return nil, f.editErr
}

func (f *fakeBot) Delete(msg tele.Editable) error {
	f.deleted = append(f.deleted, msg.(tele.StoredMessage))
	return nil
}

func (f *fakeBot) Copy(to tele.Recipient, _ tele.Editable, _ ...interface{}) (*tele.Message, error) {
	f.copied = append(f.copied, to.Recipient())
	return nil, f.copyErr
}

func (f *fakeBot) ChatMemberOf(_, _ tele.Recipient) (*tele.ChatMember, error) {
	if f.memberErr != nil {
		return nil, f.memberErr
	}
	return &tele.ChatMember{Role: f.role}, nil
}

func TestSendReturnsRefAndOptions(t *testing.T) {
	bot := &fakeBot{}
	tg := NewTelegram(bot)

	ref, err := tg.Send(context.Background(), 42, Message{Text: "hi", ParseMode: tele.ModeMarkdown, Protected: true})
	require.NoError(t, err)
	assert.Equal(t, Ref{ChatID: 42, MessageID: 77}, ref)
	assert.Equal(t, []string{"42"}, bot.sentTo)
	require.NotNil(t, bot.lastOpts)
	assert.True(t, bot.lastOpts.Protected)
}

func TestSuccessfulSendsAreCounted(t *testing.T) {
	ctx, counters := tghelpers.WithCounters(context.Background())
	tg := NewTelegram(&fakeBot{})

	_, err := tg.Send(ctx, 1, Message{Text: "a"})
	require.NoError(t, err)
	require.NoError(t, tg.Edit(ctx, Ref{ChatID: 1, MessageID: 2}, Message{Text: "b", Markup: &tele.ReplyMarkup{}}))

	msgs, kb := counters.Snapshot()
	assert.Equal(t, 2, msgs)
	assert.True(t, kb)

	failing := NewTelegram(&fakeBot{sendErr: errors.New("boom")})
	_, err = failing.Send(ctx, 1, Message{Text: "c"})
	require.Error(t, err)
	msgs, _ = counters.Snapshot()
	assert.Equal(t, 2, msgs)
}

func TestEditNotModifiedIsClassified(t *testing.T) {
	bot := &fakeBot{editErr: errors.New("telegram: Bad Request: message is not modified (400)")}
	err := NewTelegram(bot).Edit(context.Background(), Ref{ChatID: 1, MessageID: 2}, Message{Text: "x"})
	assert.ErrorIs(t, err, ErrNotModified)
	assert.True(t, IsNotModified(err))
	assert.False(t, IsBlocked(err))
}

func TestCopyBlockedIsClassified(t *testing.T) {
	bot := &fakeBot{copyErr: errors.New("telegram: Forbidden: bot was blocked by the user (403)")}
	err := NewTelegram(bot).Copy(context.Background(), 5, Ref{ChatID: 1, MessageID: 9})
	assert.ErrorIs(t, err, ErrBlocked)
	assert.Equal(t, []string{"5"}, bot.copied)

	other := NewTelegram(&fakeBot{copyErr: errors.New("telegram: Bad Request: chat not found (400)")}).
		Copy(context.Background(), 5, Ref{ChatID: 1, MessageID: 9})
	assert.Error(t, other)
	assert.False(t, IsBlocked(other))
}

func TestDeleteUsesStoredMessage(t *testing.T) {
	bot := &fakeBot{}
	require.NoError(t, NewTelegram(bot).Delete(context.Background(), Ref{ChatID: 3, MessageID: 14}))
	assert.Equal(t, []tele.StoredMessage{{MessageID: "14", ChatID: 3}}, bot.deleted)
}

func TestMemberStatus(t *testing.T) {
	status, err := NewTelegram(&fakeBot{role: tele.Administrator}).MemberStatus(context.Background(), "@channel", 9)
	require.NoError(t, err)
	assert.Equal(t, membership.StatusAdministrator, status)
	assert.True(t, status.Counts())

	_, err = NewTelegram(&fakeBot{memberErr: errors.New("boom")}).MemberStatus(context.Background(), "@channel", 9)
	assert.Error(t, err)
}

func TestCanceledContextSkipsCall(t *testing.T) {
	bot := &fakeBot{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewTelegram(bot).Send(ctx, 1, Message{Text: "x"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, bot.sentTo)
}

func TestSendRetriesConnectionFailures(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	bot := &fakeBot{sendErrs: []error{dial, dial}}
	tg := NewTelegram(bot).WithRetry(netutil.Retry{Attempts: 3, MinInterval: time.Millisecond, MaxInterval: time.Millisecond})

	ref, err := tg.Send(context.Background(), 8, Message{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, 77, ref.MessageID)
	assert.Len(t, bot.sentTo, 3)
}

func TestSendDoesNotRetryAPIErrors(t *testing.T) {
	bot := &fakeBot{sendErr: errors.New("telegram: Forbidden: bot was blocked by the user (403)")}
	_, err := NewTelegram(bot).Send(context.Background(), 8, Message{Text: "x"})
	assert.ErrorIs(t, err, ErrBlocked)
	assert.Len(t, bot.sentTo, 1)
}
