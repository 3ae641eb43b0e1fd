package services

import (
	"fmt"
	"os"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type EmailService struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewEmailService() *EmailService {
	apiKey := os.Getenv("SENDGRID_API_KEY")
	fromEmail := os.Getenv("SENDGRID_NOTIFICATIONS_FROM_EMAIL")
	fromName := os.Getenv("SENDGRID_FROM_NAME")

	client := sendgrid.NewSendClient(apiKey)

	return &EmailService{
		client:    client,
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

// SendInvitationEmail mails an invite link to the invitee
func (s *EmailService) SendInvitationEmail(toEmail, toName, inviterName, groupName, personalMessage, inviteURL string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(toName, toEmail)
	subject := fmt.Sprintf("%s invited you to join %s", inviterName, groupName)

	plainContent := fmt.Sprintf("%s has invited you to join the study group '%s'.", inviterName, groupName)
	htmlContent := fmt.Sprintf("<p>%s has invited you to join the study group '<strong>%s</strong>'.</p>", inviterName, groupName)
	if personalMessage != "" {
		plainContent += fmt.Sprintf(" Message: %s", personalMessage)
		htmlContent += fmt.Sprintf("<p>%s</p>", personalMessage)
	}
	plainContent += fmt.Sprintf(" Accept the invitation here: %s", inviteURL)
	htmlContent += fmt.Sprintf("<p><a href=\"%s\">Accept invitation</a></p>", inviteURL)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	response, err := s.client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("failed to send invitation email to %s: %d", toEmail, response.StatusCode)
	}
	return nil
}

// SendInvitationAcceptedEmail notifies the inviter their invitation was accepted
func (s *EmailService) SendInvitationAcceptedEmail(inviterEmail, inviterName, inviteeName, groupName string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(inviterName, inviterEmail)
	subject := fmt.Sprintf("%s joined %s", inviteeName, groupName)
	plainContent := fmt.Sprintf("%s accepted your invitation to '%s'.", inviteeName, groupName)
	htmlContent := fmt.Sprintf("<p>%s accepted your invitation to '<strong>%s</strong>'.</p>", inviteeName, groupName)

	message := mail.NewSingleEmail(from, subject, to, plainContent, htmlContent)
	_, err := s.client.Send(message)
	return err
}
