package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestResetCodeMessage(t *testing.T) {
	m := ResetCodeMessage("", "a@b.c", "123456", 15*time.Minute)
	require.Equal(t, DefaultFrom, m.From)
	require.Equal(t, "a@b.c", m.To)
	require.Equal(t, "Password Reset Code", m.Subject)
	require.Contains(t, m.Text, "123456")
	require.Contains(t, m.Text, "15 minutes")
	require.Contains(t, m.HTML, "<h2")
	require.Contains(t, m.HTML, "123456")
}

func TestResend_Send(t *testing.T) {
	var got resendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/emails", r.URL.Path)
		require.Equal(t, "Bearer re_key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"msg_1"}`))
	}))
	defer srv.Close()

	r := NewResend(srv.URL, "re_key")
	err := r.Send(context.Background(), ResetCodeMessage("Me <me@x.y>", "a@b.c", "654321", 15*time.Minute))
	require.NoError(t, err)
	require.Equal(t, "Me <me@x.y>", got.From)
	require.Equal(t, []string{"a@b.c"}, got.To)
	require.Contains(t, got.HTML, "654321")
}

func TestResend_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"name":"validation_error","message":"invalid from"}`))
	}))
	defer srv.Close()

	err := NewResend(srv.URL, "k").Send(context.Background(), Message{To: "a@b.c"})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "422"), err.Error())
	require.Contains(t, err.Error(), "invalid from")
}

type fakeSES struct {
	in  *ses.SendEmailInput
	err error
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.in = in
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{MessageId: aws.String("m-1")}, nil
}

func TestSES_Send(t *testing.T) {
	f := &fakeSES{}
	s := NewSESWithClient(f)
	m := ResetCodeMessage("from@x.y", "a@b.c", "111111", 15*time.Minute)

	require.NoError(t, s.Send(context.Background(), m))
	require.Equal(t, []string{"a@b.c"}, f.in.Destination.ToAddresses)
	require.Equal(t, "from@x.y", aws.ToString(f.in.Source))
	require.Equal(t, m.Subject, aws.ToString(f.in.Message.Subject.Data))
	require.Equal(t, m.Text, aws.ToString(f.in.Message.Body.Text.Data))
	require.Equal(t, m.HTML, aws.ToString(f.in.Message.Body.Html.Data))

	f.err = errors.New("throttled")
	require.ErrorContains(t, s.Send(context.Background(), m), "throttled")
}

func TestLog_Send(t *testing.T) {
	require.NoError(t, NewLog(zap.NewNop()).Send(context.Background(), Message{To: "a@b.c"}))
}
