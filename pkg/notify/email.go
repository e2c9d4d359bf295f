package notify

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"nftmarket/pkg/config"
)

type EmailService interface {
	SendEmail(subject, toEmail, plainTextContent, htmlContent string) error
}

type emailService struct {
	client      *sendgrid.Client
	senderEmail string
	senderName  string
}

func NewEmailService(cfg config.SendGridConfig) EmailService {
	return &emailService{
		client:      sendgrid.NewSendClient(cfg.APIKey),
		senderEmail: cfg.FromEmail,
		senderName:  cfg.FromName,
	}
}

func (e *emailService) SendEmail(subject, toEmail, plainTextContent, htmlContent string) error {
	from := mail.NewEmail(e.senderName, e.senderEmail)
	to := mail.NewEmail("", toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent)
	response, err := e.client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid rejected email: status %d", response.StatusCode)
	}
	return nil
}
