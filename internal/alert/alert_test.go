package alert

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/nateberkopec/notibar/internal/log"
	"github.com/nateberkopec/notibar/internal/render"
)

type mockSound struct{ mock.Mock }

func (m *mockSound) Play(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type mockDesktop struct{ mock.Mock }

func (m *mockDesktop) Notify(title, body string) error {
	return m.Called(title, body).Error(0)
}

func TestNewUsesDefaultsWithoutUnreadRow(t *testing.T) {
	a := New(4, []render.Row{{Placeholder: true, Message: render.PlaceholderText}}, true)
	assert.Equal(t, "New Notification", a.Title)
	assert.Equal(t, "You have 4 unread notifications", a.Body)
	assert.True(t, a.Desktop)
}

func TestNewUsesFirstUnreadRow(t *testing.T) {
	rows := []render.Row{
		{Title: "old", Message: "already read"},
		{Title: "Ticket #7 updated", Message: "Alice replied", Unread: true},
	}
	a := New(1, rows, false)
	assert.Equal(t, "Ticket #7 updated", a.Title)
	assert.Equal(t, "Alice replied", a.Body)
	assert.False(t, a.Desktop)
}

func TestFirePlaysSoundAndNotifies(t *testing.T) {
	sound := new(mockSound)
	desktop := new(mockDesktop)
	sound.On("Play", mock.Anything).Return(nil).Once()
	desktop.On("Notify", "A", "m1").Return(nil).Once()

	NewAlerter(sound, desktop, log.NewNop()).Fire(context.Background(), Alert{Unread: 3, Title: "A", Body: "m1", Desktop: true})

	sound.AssertExpectations(t)
	desktop.AssertExpectations(t)
}

func TestFireSkipsDesktopWithoutPermission(t *testing.T) {
	sound := new(mockSound)
	desktop := new(mockDesktop)
	sound.On("Play", mock.Anything).Return(nil).Once()

	NewAlerter(sound, desktop, log.NewNop()).Fire(context.Background(), Alert{Unread: 1, Desktop: false})

	sound.AssertExpectations(t)
	desktop.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
}

func TestFireSwallowsFailures(t *testing.T) {
	sound := new(mockSound)
	desktop := new(mockDesktop)
	sound.On("Play", mock.Anything).Return(errors.New("no audio device")).Once()
	desktop.On("Notify", mock.Anything, mock.Anything).Return(errors.New("no daemon")).Once()

	assert.NotPanics(t, func() {
		NewAlerter(sound, desktop, log.NewNop()).Fire(context.Background(), Alert{Unread: 1, Desktop: true})
	})

	sound.AssertExpectations(t)
	desktop.AssertExpectations(t)
}

type panickyDesktop struct{}

func (panickyDesktop) Notify(string, string) error { panic("construction failed") }

func TestFireRecoversFromNotifierPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		NewAlerter(nil, panickyDesktop{}, nil).Fire(context.Background(), Alert{Desktop: true})
	})
}
