package service

import (
	"bufio"
	"context"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSMTPServer accepts one session without STARTTLS or AUTH and returns
// the raw DATA payload.
func fakeSMTPServer(t *testing.T) (string, int, <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	data := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		tp := textproto.NewConn(conn)
		_ = tp.PrintfLine("220 localhost ESMTP")

		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			cmd := strings.ToUpper(line)
			switch {
			case strings.HasPrefix(cmd, "EHLO"):
				_ = tp.PrintfLine("250-localhost")
				_ = tp.PrintfLine("250 8BITMIME")
			case strings.HasPrefix(cmd, "MAIL FROM"), strings.HasPrefix(cmd, "RCPT TO"):
				_ = tp.PrintfLine("250 OK")
			case cmd == "DATA":
				_ = tp.PrintfLine("354 go ahead")
				body, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				data <- string(body)
				_ = tp.PrintfLine("250 queued")
			case cmd == "QUIT":
				_ = tp.PrintfLine("221 bye")
				return
			default:
				_ = tp.PrintfLine("502 unsupported")
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port, data
}

func TestSMTPMailer_Send(t *testing.T) {
	host, port, data := fakeSMTPServer(t)
	mailer := NewSMTPMailer(host, port, "", "")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := mailer.Send(ctx, Message{
		From:    "noreply@example.com",
		To:      "john@example.com",
		Subject: "Welcome to SampleApp!",
		Body:    "Hello John,\nWelcome.",
	})
	require.NoError(t, err)

	select {
	case payload := <-data:
		assert.Contains(t, payload, "Subject: Welcome to SampleApp!")
		assert.Contains(t, payload, "To: john@example.com")
		assert.Contains(t, payload, "Hello John,\nWelcome.")
	case <-ctx.Done():
		t.Fatal("server did not receive a message")
	}
}

func TestSMTPMailer_DialError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	mailer := NewSMTPMailer("127.0.0.1", port, "user", "pass")
	err = mailer.Send(context.Background(), Message{To: "a@example.com"})
	assert.ErrorContains(t, err, "dial smtp")
}

func TestBuildMessage(t *testing.T) {
	raw := string(buildMessage(Message{From: "a@x.test", To: "b@x.test", Subject: "Hi", Body: "line1\nline2"}))

	r := textproto.NewReader(bufio.NewReader(strings.NewReader(raw)))
	header, err := r.ReadMIMEHeader()
	require.NoError(t, err)
	assert.Equal(t, "a@x.test", header.Get("From"))
	assert.Equal(t, "Hi", header.Get("Subject"))
	assert.Equal(t, `text/plain; charset="utf-8"`, header.Get("Content-Type"))
	assert.True(t, strings.HasSuffix(raw, "line1\r\nline2"), strconv.Quote(raw))
}
