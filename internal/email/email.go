// Package email provides email sending functionality
package email

import (
	"bytes"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"sync"
	"time"

	"github.com/Marga-Ghale/ora-tracker/internal/logutils"
)

var log = logutils.Component("email")

// Config holds email configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
	FromName string
	UseTLS   bool
}

// Service handles email sending
type Service struct {
	config    *Config
	templates map[string]*template.Template
}

func NewService(config *Config) *Service {
	s := &Service{
		config:    config,
		templates: make(map[string]*template.Template),
	}
	s.loadTemplates()
	return s
}

// Enabled reports whether an SMTP host is configured.
func (s *Service) Enabled() bool {
	return s.config != nil && s.config.Host != ""
}

// Email represents an email message
type Email struct {
	To       []string
	CC       []string
	BCC      []string
	Subject  string
	Body     string
	HTMLBody string
}

// ProjectInvitationData holds data for project invitation email
type ProjectInvitationData struct {
	InviteeName string
	InviterName string
	ProjectName string
	ProjectURL  string
}

func (s *Service) loadTemplates() {
	s.templates["project_invitation"] = template.Must(template.New("project_invitation").Parse(`
<!DOCTYPE html>
<html>
<head>
    <style>
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #10b981; color: white; padding: 24px; border-radius: 8px 8px 0 0; }
        .content { background: #f9fafb; padding: 24px; border-radius: 0 0 8px 8px; }
        .btn { display: inline-block; background: #10b981; color: white; padding: 12px 20px; text-decoration: none; border-radius: 6px; margin-top: 16px; }
        .footer { margin-top: 24px; font-size: 12px; color: #6b7280; text-align: center; }
    </style>
</head>
<body>
<div class="container">
    <div class="header">
        <h2>You're invited to a project</h2>
    </div>
    <div class="content">
        <p>Hello{{if .InviteeName}} {{.InviteeName}}{{end}},</p>
        <p><strong>{{.InviterName}}</strong> invited you to join <strong>{{.ProjectName}}</strong>.</p>
        <p>Open your notifications to accept the invitation.</p>

        <a href="{{.ProjectURL}}" class="btn">Open ORA Tracker</a>
    </div>
    <div class="footer">
        ORA Tracker
    </div>
</div>
</body>
</html>
`))
}

// Send sends an email. Without a configured host it logs and returns nil.
func (s *Service) Send(email *Email) error {
	if !s.Enabled() {
		log.WithField("subject", email.Subject).Debug("email not configured, skipping send")
		return nil
	}

	var msg bytes.Buffer

	msg.WriteString(fmt.Sprintf("From: %s <%s>\r\n", s.config.FromName, s.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(email.To, ", ")))
	if len(email.CC) > 0 {
		msg.WriteString(fmt.Sprintf("Cc: %s\r\n", strings.Join(email.CC, ", ")))
	}
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", email.Subject))
	msg.WriteString("MIME-Version: 1.0\r\n")

	if email.HTMLBody != "" {
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(email.HTMLBody)
	} else {
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		msg.WriteString("\r\n")
		msg.WriteString(email.Body)
	}

	recipients := append([]string{}, email.To...)
	recipients = append(recipients, email.CC...)
	recipients = append(recipients, email.BCC...)

	auth := smtp.PlainAuth("", s.config.User, s.config.Password, s.config.Host)
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	if s.config.UseTLS {
		tlsConfig := &tls.Config{
			ServerName: s.config.Host,
		}

		conn, err := tls.Dial("tcp", addr, tlsConfig)
		if err != nil {
			return fmt.Errorf("TLS dial error: %w", err)
		}
		defer conn.Close()

		client, err := smtp.NewClient(conn, s.config.Host)
		if err != nil {
			return fmt.Errorf("SMTP client error: %w", err)
		}
		defer client.Close()

		if err = client.Auth(auth); err != nil {
			return fmt.Errorf("auth error: %w", err)
		}
		if err = client.Mail(s.config.From); err != nil {
			return fmt.Errorf("mail error: %w", err)
		}
		for _, rcpt := range recipients {
			if err = client.Rcpt(rcpt); err != nil {
				return fmt.Errorf("rcpt error: %w", err)
			}
		}

		w, err := client.Data()
		if err != nil {
			return fmt.Errorf("data error: %w", err)
		}
		if _, err = w.Write(msg.Bytes()); err != nil {
			return fmt.Errorf("write error: %w", err)
		}
		if err = w.Close(); err != nil {
			return fmt.Errorf("close error: %w", err)
		}

		return client.Quit()
	}

	return smtp.SendMail(addr, auth, s.config.From, recipients, msg.Bytes())
}

// Render executes a named template.
func (s *Service) Render(templateName string, data interface{}) (string, error) {
	tmpl, ok := s.templates[templateName]
	if !ok {
		return "", fmt.Errorf("template not found: %s", templateName)
	}

	var body bytes.Buffer
	if err := tmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("template execution error: %w", err)
	}
	return body.String(), nil
}

func (s *Service) SendWithTemplate(to []string, subject, templateName string, data interface{}) error {
	body, err := s.Render(templateName, data)
	if err != nil {
		return err
	}

	return s.Send(&Email{
		To:       to,
		Subject:  subject,
		HTMLBody: body,
	})
}

func projectInvitationSubject(data ProjectInvitationData) string {
	return fmt.Sprintf("[ORA] Invitation to join project %s", data.ProjectName)
}

// ============================================
// Async Email Queue (simple in-memory)
// ============================================

// EmailQueue sends mail from background workers so request handlers never wait on SMTP.
type EmailQueue struct {
	service *Service
	queue   chan *queuedEmail
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

type queuedEmail struct {
	to           []string
	subject      string
	templateName string
	data         interface{}
	retries      int
}

const maxEmailRetries = 3

func NewEmailQueue(service *Service, workers int) *EmailQueue {
	q := &EmailQueue{
		service: service,
		queue:   make(chan *queuedEmail, 1000),
		done:    make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker()
	}

	return q
}

func (q *EmailQueue) worker() {
	defer q.wg.Done()
	for {
		select {
		case email := <-q.queue:
			err := q.service.SendWithTemplate(email.to, email.subject, email.templateName, email.data)
			if err == nil {
				continue
			}
			log.WithError(err).WithField("subject", email.subject).Warn("email send failed")
			if email.retries < maxEmailRetries {
				email.retries++
				select {
				case <-time.After(time.Second * time.Duration(email.retries*2)):
					q.push(email)
				case <-q.done:
					return
				}
			}
		case <-q.done:
			return
		}
	}
}

// Enqueue adds an email to the queue; drops it when the queue is full.
func (q *EmailQueue) Enqueue(to []string, subject, templateName string, data interface{}) {
	q.push(&queuedEmail{to: to, subject: subject, templateName: templateName, data: data})
}

func (q *EmailQueue) push(email *queuedEmail) {
	select {
	case q.queue <- email:
	default:
		log.WithField("subject", email.subject).Warn("email queue full, dropping")
	}
}

func (q *EmailQueue) EnqueueProjectInvitation(to string, data ProjectInvitationData) {
	q.Enqueue([]string{to}, projectInvitationSubject(data), "project_invitation", data)
}

// Stop stops the workers and waits for them to exit.
func (q *EmailQueue) Stop() {
	q.once.Do(func() { close(q.done) })
	q.wg.Wait()
}
