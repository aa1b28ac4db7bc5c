package usecase

import (
	"context"
	"fmt"

	"license-server/internal/dto/request"
	"license-server/internal/dto/response"
	"license-server/pkg/mailer"
	"license-server/pkg/utils"

	"go.uber.org/zap"
)

// NotificationService relays ad-hoc HTML emails for other services.
type NotificationService interface {
	Send(ctx context.Context, req *request.SendNotificationRequest) (*response.NotificationResponse, error)
}

type notificationService struct {
	dispatcher Dispatcher
	log        *zap.Logger
}

func NewNotificationService(dispatcher Dispatcher, log *zap.Logger) NotificationService {
	return &notificationService{
		dispatcher: dispatcher,
		log:        log.With(zap.String("service", "notification")),
	}
}

func (s *notificationService) Send(ctx context.Context, req *request.SendNotificationRequest) (*response.NotificationResponse, error) {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrValidation, utils.FormatValidationErrors(errs))
	}

	messageID, err := s.dispatcher.Dispatch(ctx, mailer.Message{
		To:      req.To,
		Subject: req.Subject,
		HTML:    req.HTML,
	})
	if err != nil {
		s.log.Error("Failed to relay notification", zap.Error(err), zap.String("to", req.To))
		return nil, fmt.Errorf("%w: relay notification: %v", ErrDispatch, err)
	}

	s.log.Info("Notification relayed",
		zap.String("to", req.To),
		zap.String("message_id", messageID),
		zap.Any("action_type", req.ActionType))

	return &response.NotificationResponse{
		Message:    "Notification sent successfully",
		MessageID:  messageID,
		ActionType: req.ActionType,
		EntityType: req.EntityType,
		EntityID:   req.EntityID,
		UserInfo:   req.UserInfo,
		Timestamp:  req.Timestamp,
	}, nil
}
