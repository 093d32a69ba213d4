package alert

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTelegramSendsMessage(t *testing.T) {
	client := &http.Client{Timeout: time.Second}
	httpmock.ActivateNonDefault(client)
	defer httpmock.DeactivateAndReset()

	var gotChatID, gotText string
	httpmock.RegisterResponder(http.MethodPost, "https://api.telegram.org/bot123:ABC/sendMessage",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseForm())
			gotChatID = req.PostFormValue("chat_id")
			gotText = req.PostFormValue("text")
			return httpmock.NewStringResponse(http.StatusOK, `{"ok":true}`), nil
		})

	tg := NewTelegram("123:ABC", "4242", client)
	err := tg.Alert(context.Background(), Event{Message: "RDV détecté"})

	require.NoError(t, err)
	assert.Equal(t, "4242", gotChatID)
	assert.Equal(t, "RDV détecté", gotText)
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestTelegramReportsAPIErrors(t *testing.T) {
	client := &http.Client{Timeout: time.Second}
	httpmock.ActivateNonDefault(client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://api.telegram.org/botbad/sendMessage",
		httpmock.NewStringResponder(http.StatusUnauthorized, `{"ok":false,"description":"Unauthorized"}`))

	tg := NewTelegram("bad", "4242", client)
	err := tg.Alert(context.Background(), Event{Message: "RDV détecté"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestTelegramReportsTransportErrors(t *testing.T) {
	client := &http.Client{Timeout: time.Second}
	httpmock.ActivateNonDefault(client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodPost, "https://api.telegram.org/bot123:ABC/sendMessage",
		httpmock.NewErrorResponder(context.DeadlineExceeded))

	tg := NewTelegram("123:ABC", "4242", client)
	err := tg.Alert(context.Background(), Event{Message: "RDV détecté"})

	assert.Error(t, err)
}
