package notifier

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/dtroode/authkeeper/internal/logger"
	"github.com/dtroode/authkeeper/internal/model"
)

var _ model.Notifier = (*Archive)(nil)

// Archive uploads a copy of every message to object storage and then hands it to next.
// A failed upload is logged and does not stop delivery.
type Archive struct {
	storage model.Storage
	next    model.Notifier
	logger  *logger.Logger
}

func NewArchive(storage model.Storage, next model.Notifier, logger *logger.Logger) *Archive {
	return &Archive{
		storage: storage,
		next:    next,
		logger:  logger,
	}
}

func (a *Archive) Send(ctx context.Context, msg model.Message) error {
	if err := a.archive(ctx, msg); err != nil {
		a.logger.Error("Notifier: failed to archive message",
			"id", msg.ID,
			"error", err.Error())
	}
	return a.next.Send(ctx, msg)
}

func (a *Archive) archive(ctx context.Context, msg model.Message) error {
	key := ArchiveKey(msg)

	exists, err := a.storage.Exists(ctx, key)
	if err != nil {
		return fmt.Errorf("failed to check archived copy: %w", err)
	}
	if exists {
		return nil
	}

	if err := a.storage.Upload(ctx, key, bytes.NewReader(RenderEML(msg))); err != nil {
		return fmt.Errorf("failed to upload archived copy: %w", err)
	}
	return nil
}

// ArchiveKey returns the object key of msg: <yyyy>/<mm>/<dd>/<id>.eml.
func ArchiveKey(msg model.Message) string {
	return path.Join(msg.CreatedAt.UTC().Format("2006/01/02"), msg.ID+".eml")
}

// RenderEML renders msg as a plain text RFC 822 message.
func RenderEML(msg model.Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "Message-ID: <%s@authkeeper>\r\n", headerValue(msg.ID))
	fmt.Fprintf(&b, "Date: %s\r\n", msg.CreatedAt.UTC().Format(time.RFC1123Z))
	fmt.Fprintf(&b, "From: %s\r\n", headerValue(msg.From))
	fmt.Fprintf(&b, "To: %s\r\n", headerValue(msg.Recipient))
	fmt.Fprintf(&b, "Subject: %s\r\n", headerValue(msg.Subject))
	fmt.Fprintf(&b, "X-Authkeeper-Kind: %s\r\n", headerValue(string(msg.Kind)))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return b.Bytes()
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// headerValue folds line breaks so a value cannot start a new header.
func headerValue(v string) string {
	return headerBreaks.Replace(v)
}
