package email

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/google/uuid"

	"github.com/tanayreshamwala/rfp-ai-app/internal/common/logger"
)

// LogSender is the development transport: it logs outbound mail instead of
// delivering it, so the full send path can run without SES credentials.
type LogSender struct {
	logger logger.Logger
}

func NewLogSender(log logger.Logger) *LogSender {
	return &LogSender{logger: log}
}

func (s *LogSender) SendEmail(_ context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	to := ""
	if input.Destination != nil && len(input.Destination.ToAddresses) > 0 {
		to = input.Destination.ToAddresses[0]
	}
	subject := ""
	if input.Message != nil && input.Message.Subject != nil && input.Message.Subject.Data != nil {
		subject = *input.Message.Subject.Data
	}

	s.logger.Info("email send suppressed (log transport)", map[string]interface{}{
		"to":      to,
		"subject": subject,
	})
	return &ses.SendEmailOutput{MessageId: aws.String("log-" + uuid.NewString())}, nil
}
