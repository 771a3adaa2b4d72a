package email

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectOf(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{text: "Reminder: yoga, batch #2, lesson 3: Balance starts in 3 hours, Sat 09 Mar 22:00 UTC", want: "Reminder: yoga, batch #2, lesson 3: Balance"},
		{text: "plain note", want: "plain note"},
		{text: "first line\nsecond", want: "first line"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, subjectOf(tt.text))
	}
}

func TestChannelSend(t *testing.T) {
	var got map[string]any
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &got)
		if r.URL.Path != endpoint {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	ch := NewChannel("sg-key", "Class Schedule", "noreply@example.com")
	ch.host = srv.URL

	err := ch.Send(context.Background(), "Ana <ana@example.com>", "Reminder: yoga, batch #1, lesson 1: Breathing starts tomorrow")
	require.NoError(t, err)

	assert.Equal(t, "Bearer sg-key", auth)
	personalizations := got["personalizations"].([]any)
	require.Len(t, personalizations, 1)
	p := personalizations[0].(map[string]any)
	assert.Equal(t, "[Class Schedule] Reminder: yoga, batch #1, lesson 1: Breathing", p["subject"])
	to := p["to"].([]any)[0].(map[string]any)
	assert.Equal(t, "ana@example.com", to["email"])
}

func TestChannelSendRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"errors":[{"message":"bad key"}]}`))
	}))
	defer srv.Close()

	ch := NewChannel("wrong", "Class Schedule", "noreply@example.com")
	ch.host = srv.URL

	err := ch.Send(context.Background(), "ana@example.com", "Reminder")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
	assert.Contains(t, err.Error(), "bad key")
}

func TestChannelSendInvalidAddress(t *testing.T) {
	ch := NewChannel("key", "Class Schedule", "noreply@example.com")
	err := ch.Send(context.Background(), "not an address", "Reminder")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid email address")
}
