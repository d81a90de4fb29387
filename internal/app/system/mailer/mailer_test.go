package mailer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLinks(t *testing.T) {
	assert.Equal(t, "https://clubbera.com/confirmation/abc", ConfirmationLink("https://clubbera.com/", "abc"))
	assert.Equal(t, "https://clubbera.com/resetpassword/abc", ResetLink("https://clubbera.com", "abc"))
}

func TestBuildConfirmationEmail(t *testing.T) {
	e := BuildConfirmationEmail(LinkEmailData{SiteName: "Clubbera", Link: "https://x/confirmation/t", ExpiresIn: "1 hour"})
	assert.Equal(t, "Email Confirmation", e.Subject)
	assert.Contains(t, e.TextBody, "https://x/confirmation/t")
	assert.Contains(t, e.HTMLBody, `href="https://x/confirmation/t"`)
	assert.Contains(t, e.HTMLBody, "Clubbera")
}

func TestBuildPasswordResetEmail_EscapesLink(t *testing.T) {
	e := BuildPasswordResetEmail(LinkEmailData{SiteName: "Clubbera", Link: `https://x/resetpassword/"><script>`, ExpiresIn: "1 hour"})
	assert.Equal(t, "Password Reset", e.Subject)
	assert.NotContains(t, e.HTMLBody, "<script>")
}

func TestSMTPConfig(t *testing.T) {
	c := SMTPConfig(Config{Host: "smtp.example.com", From: "noreply@clubbera.com", FromName: "Clubbera"})
	assert.Equal(t, 465, c.Port)
	assert.True(t, c.UseSSL)
	assert.False(t, c.UseTLS)
	assert.Equal(t, "noreply@clubbera.com", c.FromAddress)
	assert.Equal(t, "Clubbera", c.FromName)

	c = SMTPConfig(Config{Host: "smtp.example.com", Port: 587, Username: "u", Password: "p"})
	assert.False(t, c.UseSSL)
	assert.True(t, c.UseTLS)
	assert.Equal(t, "u", c.Username)
}

func TestMessage(t *testing.T) {
	m, err := Message(Email{To: "a@x.com", Subject: "Hi", TextBody: "plain", HTMLBody: "<p>html</p>"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com"}, m.To)
	assert.Equal(t, "Hi", m.Subject)
	assert.Equal(t, "plain", m.TextBody)
	assert.Equal(t, "<p>html</p>", m.HTMLBody)

	_, err = Message(Email{To: "not an address"})
	assert.Error(t, err)
}

func TestMailer_SendRejectsBadRecipient(t *testing.T) {
	s := New(Config{Host: "smtp.invalid"}, zap.NewNop())
	_, ok := s.(*Mailer)
	require.True(t, ok)
	assert.Error(t, s.Send(context.Background(), Email{To: "nobody", TextBody: "x"}))
}

func TestNew_NoHostIsLogOnly(t *testing.T) {
	s := New(Config{}, zap.NewNop())
	_, ok := s.(LogOnly)
	assert.True(t, ok)
	assert.NoError(t, s.Send(context.Background(), Email{To: "a@x.com"}))
}
