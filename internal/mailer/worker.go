package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wneessen/go-mail"

	"github.com/blankstorm/accounts/backend/internal/domain"
)

type Sender interface {
	DialAndSend(messages ...*mail.Msg) error
}

// Worker 消费邮件队列，格式错误的消息直接丢弃，发送失败的消息重新入队
type Worker struct {
	renderer *Renderer
	sender   Sender
	logger   *slog.Logger
}

func NewWorker(renderer *Renderer, sender Sender, logger *slog.Logger) *Worker {
	return &Worker{renderer: renderer, sender: sender, logger: logger}
}

func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				w.logger.Warn("消息通道已关闭")
				return
			}
			w.Handle(d)
		}
	}
}

func (w *Worker) Handle(d amqp.Delivery) {
	// 对邮件信息反序列化
	var message domain.MailMessage
	if err := json.Unmarshal(d.Body, &message); err != nil {
		w.logger.Error("邮件信息反序列化失败", slog.String("error", err.Error()))
		_ = d.Nack(false, false)
		return
	}
	w.logger.Info("收到消息", slog.String("type", message.Type), slog.String("to", message.To))

	msg, err := w.renderer.Render(message)
	if err != nil {
		var unsupported *UnsupportedTypeError
		if errors.As(err, &unsupported) {
			w.logger.Error("不支持的邮件类型", slog.String("type", message.Type))
		} else {
			w.logger.Error("无法构建邮件", slog.String("error", err.Error()))
		}
		_ = d.Nack(false, false)
		return
	}

	// 发送邮件
	if err := w.sender.DialAndSend(msg); err != nil {
		w.logger.Error("邮件发送失败", slog.String("error", err.Error()))
		_ = d.Nack(false, true) // 将消息重新入队
		return
	}

	// 确认消息
	_ = d.Ack(false)
}
