package smtp

import (
	"context"
	"errors"
	"net"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"ncs-birthday-mailer/domain/failure"
	"ncs-birthday-mailer/domain/notification"

	"github.com/sirupsen/logrus/hooks/test"
)

type fakeMail struct {
	from string
	rcpt []string
	data string
	auth bool
}

// startFakeServer accepts one SMTP session on localhost and reports what it
// received.
func startFakeServer(t *testing.T) (string, int, <-chan fakeMail) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })

	out := make(chan fakeMail, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		tp := textproto.NewConn(conn)
		var m fakeMail
		tp.PrintfLine("220 fake ESMTP")
		for {
			line, err := tp.ReadLine()
			if err != nil {
				return
			}
			verb := strings.ToUpper(strings.SplitN(line, " ", 2)[0])
			switch verb {
			case "EHLO", "HELO":
				tp.PrintfLine("250-fake")
				tp.PrintfLine("250 AUTH PLAIN")
			case "AUTH":
				m.auth = true
				tp.PrintfLine("235 2.7.0 Authentication successful")
			case "MAIL":
				m.from = line
				tp.PrintfLine("250 OK")
			case "RCPT":
				m.rcpt = append(m.rcpt, line)
				tp.PrintfLine("250 OK")
			case "DATA":
				tp.PrintfLine("354 End data with <CR><LF>.<CR><LF>")
				data, err := tp.ReadDotBytes()
				if err != nil {
					return
				}
				m.data = string(data)
				tp.PrintfLine("250 OK")
			case "QUIT":
				tp.PrintfLine("221 Bye")
				out <- m
				return
			default:
				tp.PrintfLine("502 unsupported")
			}
		}
	}()

	addr := ln.Addr().(*net.TCPAddr)
	return "127.0.0.1", addr.Port, out
}

func TestClient_Send(t *testing.T) {
	host, port, received := startFakeServer(t)
	logger, _ := test.NewNullLogger()

	client := NewClient(Config{
		Host:     host,
		Port:     port,
		Password: "app-password",
		From:     notification.Recipient{Name: "NCS Wishes", Address: "wishes@example.com"},
		Timeout:  5 * time.Second,
	}, WithLogger(logger))

	err := client.Send(context.Background(), &notification.EmailRequest{
		To:        []notification.Recipient{{Address: "jane@example.com"}},
		CC:        []notification.Recipient{{Address: "admin@example.com"}},
		Subject:   "Happy birthday",
		PlainText: "Wishing you a very happy birthday!",
	})
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	var m fakeMail
	select {
	case m = <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not receive a message")
	}

	if !m.auth {
		t.Error("client did not authenticate")
	}
	if !strings.Contains(m.from, "<wishes@example.com>") {
		t.Errorf("MAIL = %q", m.from)
	}
	if len(m.rcpt) != 2 {
		t.Errorf("RCPT = %v, want 2 recipients", m.rcpt)
	}
	for _, want := range []string{"Subject: Happy birthday", "To: <jane@example.com>", "Wishing you a very happy birthday!"} {
		if !strings.Contains(m.data, want) {
			t.Errorf("DATA missing %q:\n%s", want, m.data)
		}
	}
}

func TestClient_Send_MissingConfigIsFatal(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"no sender", Config{Host: "smtp.example.com", Port: 587, Password: "x"}},
		{"no password", Config{Host: "smtp.example.com", Port: 587, From: notification.Recipient{Address: "a@example.com"}}},
		{"no server", Config{Port: 587, Password: "x", From: notification.Recipient{Address: "a@example.com"}}},
		{"bad port", Config{Host: "smtp.example.com", Password: "x", From: notification.Recipient{Address: "a@example.com"}}},
	}

	req := &notification.EmailRequest{
		To:      []notification.Recipient{{Address: "jane@example.com"}},
		Subject: "Hi",
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewClient(tt.cfg).Send(context.Background(), req)
			if !errors.Is(err, notification.ErrNotConfigured) {
				t.Errorf("Send() error = %v, want ErrNotConfigured", err)
			}
			if !failure.IsFatal(err) {
				t.Errorf("Send() error not fatal: %v", err)
			}
		})
	}
}

func TestClient_Send_ConnectionErrorIsRetryable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	client := NewClient(Config{
		Host:     "127.0.0.1",
		Port:     port,
		Password: "x",
		From:     notification.Recipient{Address: "a@example.com"},
		Timeout:  time.Second,
	})

	err = client.Send(context.Background(), &notification.EmailRequest{
		To:      []notification.Recipient{{Address: "jane@example.com"}},
		Subject: "Hi",
	})
	if !errors.Is(err, notification.ErrSendFailed) {
		t.Fatalf("Send() error = %v, want ErrSendFailed", err)
	}
	if failure.IsFatal(err) {
		t.Error("connection error should not be fatal")
	}
}
