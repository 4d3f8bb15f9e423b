package service

import (
	"context"
	"fmt"
	"log"
	"net/url"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
}

// NewEmailService creates a new email service. When fromEmail is empty
// the service is created disabled and every send becomes a logged no-op.
func NewEmailService(awsRegion, fromEmail, fromName, appBaseURL string) (*EmailService, error) {
	if fromEmail == "" {
		log.Println("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{enabled: false}, nil
	}

	cfg, err := config.LoadDefaultConfig(context.TODO(),
		config.WithRegion(awsRegion),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := sesv2.NewFromConfig(cfg)
	log.Printf("Email service enabled: from=%s, region=%s", fromEmail, awsRegion)

	return &EmailService{
		client:     client,
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendInvitationEmail sends an enrollment invitation with a signed link
func (s *EmailService) SendInvitationEmail(ctx context.Context, toEmail, familyName, token string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): invitation to %s", toEmail)
		return nil
	}

	inviteLink := fmt.Sprintf("%s/invite/accept?token=%s", s.appBaseURL, url.QueryEscape(token))

	subject := fmt.Sprintf("You've been invited to join %s on FamilyVault", familyName)
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #7a5ea8; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #7a5ea8; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>You're Invited</h1>
		</div>
		<div class="content">
			<p>Hi,</p>
			<p>The <strong>%s</strong> family invited you to join their shared memory vault on FamilyVault.</p>
			<p>Click the button below to accept the invitation and create your account:</p>
			<p style="text-align: center;">
				<a href="%s" class="button">Join %s</a>
			</p>
			<p>Or copy and paste this link into your browser:</p>
			<p style="word-break: break-all; font-size: 12px; color: #666;">%s</p>
			<p>If you weren't expecting this invitation, you can safely ignore this email.</p>
		</div>
		<div class="footer">
			<p>This is an automated email from FamilyVault. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, familyName, inviteLink, familyName, inviteLink)

	textBody := fmt.Sprintf(`Hi,

The %s family invited you to join their shared memory vault on FamilyVault.

Accept the invitation here:
%s

If you weren't expecting this invitation, you can safely ignore this email.

---
This is an automated email from FamilyVault. Please do not reply.
`, familyName, inviteLink)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// SendWelcomeEmail sends a welcome email to a newly registered family
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, familyName string) error {
	if !s.enabled {
		log.Printf("Skipping email send (service disabled): welcome to %s", toEmail)
		return nil
	}

	subject := "Welcome to FamilyVault!"
	htmlBody := fmt.Sprintf(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #7a5ea8; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #7a5ea8; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Welcome to FamilyVault!</h1>
		</div>
		<div class="content">
			<p>Hi %s,</p>
			<p>Your family account is ready. FamilyVault keeps your photos, videos and voice recordings together in one private place.</p>
			<p>Here's what you can do next:</p>
			<ul>
				<li>Add family members and set their roles</li>
				<li>Create vaults for trips, milestones and traditions</li>
				<li>Upload your first memories</li>
			</ul>
			<p style="text-align: center;">
				<a href="%s/login" class="button">Get Started</a>
			</p>
		</div>
		<div class="footer">
			<p>This is an automated email from FamilyVault. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`, familyName, s.appBaseURL)

	textBody := fmt.Sprintf(`Hi %s,

Your family account is ready. FamilyVault keeps your photos, videos and voice recordings together in one private place.

Here's what you can do next:
- Add family members and set their roles
- Create vaults for trips, milestones and traditions
- Upload your first memories

Get started: %s/login

---
This is an automated email from FamilyVault. Please do not reply.
`, familyName, s.appBaseURL)

	return s.sendEmail(ctx, toEmail, subject, htmlBody, textBody)
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := s.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	log.Printf("Email sent successfully: to=%s, subject=%s", toEmail, subject)
	return nil
}
