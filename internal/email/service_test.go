package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent  []*gomail.Message
	err   error
	block chan struct{}
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.block != nil {
		<-d.block
	}
	d.sent = append(d.sent, m...)
	return d.err
}

func TestSendCustom(t *testing.T) {
	d := &fakeDialer{}
	svc := &smtpService{dialer: d, from: "clinic@example.com"}

	require.NoError(t, svc.SendCustom(context.Background(), "patient@example.com", "Reminder", "See you tomorrow"))
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"patient@example.com"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"clinic@example.com"}, d.sent[0].GetHeader("From"))
	assert.Equal(t, []string{"Reminder"}, d.sent[0].GetHeader("Subject"))
}

func TestSendCustomErrors(t *testing.T) {
	svc := &smtpService{dialer: &fakeDialer{}, from: "clinic@example.com"}
	assert.Error(t, svc.SendCustom(context.Background(), "", "s", "b"))

	boom := errors.New("connection refused")
	svc = &smtpService{dialer: &fakeDialer{err: boom}}
	assert.ErrorIs(t, svc.SendCustom(context.Background(), "a@example.com", "s", "b"), boom)

	block := make(chan struct{})
	defer close(block)
	svc = &smtpService{dialer: &fakeDialer{block: block}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, svc.SendCustom(ctx, "a@example.com", "s", "b"), context.DeadlineExceeded)
}
