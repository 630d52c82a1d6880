package emailsvc

import (
	"bytes"
	"fmt"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/dalant/core"
)

var (
	SentMessages = make([]core.EmailMessage, 0)
	mu           sync.Mutex
)

// consoleService writes every message as a MIME document to the logger instead of sending it.
type consoleService struct {
	from       mail.Address
	subjPrefix string
	logger     core.Logger // nil disables the output
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config, logger core.Logger) core.EmailService {
	return &consoleService{from: conf.DefaultFromEmail(), subjPrefix: "[" + conf.AppName + "] ", logger: logger}
}

// SentMessagesTo returns a copy of the messages sent to addr.
func SentMessagesTo(addr string) []core.EmailMessage {
	mu.Lock()
	defer mu.Unlock()
	msgs := make([]core.EmailMessage, 0)
	for _, msg := range SentMessages {
		for _, to := range msg.To {
			if to.Address == addr {
				msgs = append(msgs, msg)
				break
			}
		}
	}
	return msgs
}

func (svc consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.deliver(msg)
	}
}

func (svc consoleService) logError(msg string, err error) {
	if svc.logger != nil {
		svc.logger.Error(fmt.Sprintf("%s: %v", msg, err), err)
	}
}

func (svc consoleService) deliver(msg *core.EmailMessage) {
	if err := msg.Render(); err != nil {
		svc.logError("rendering email", err)
		return
	}
	if !msg.HasRecipients() || !(msg.HasContent() || msg.HasAttachments()) {
		return
	}
	raw, err := svc.compose(*msg)
	if err != nil {
		svc.logError("composing email", err)
		return
	}
	if svc.logger != nil {
		svc.logger.Info(raw)
	}
	mu.Lock()
	SentMessages = append(SentMessages, *msg)
	mu.Unlock()
}

// compose renders msg as multipart/alternative, wrapped in multipart/mixed when it has attachments.
func (svc consoleService) compose(msg core.EmailMessage) (string, error) {
	var alt bytes.Buffer
	altW := multipart.NewWriter(&alt)
	for _, body := range []struct{ ct, content string }{
		{"text/plain; charset=utf-8", msg.TextContent},
		{"text/html; charset=utf-8", msg.HTMLContent},
	} {
		if body.content == "" {
			continue
		}
		w, err := altW.CreatePart(textproto.MIMEHeader{"Content-Type": {body.ct}})
		if err != nil {
			return "", errors.Wrap(err, "creating "+body.ct+" part")
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", body.content)
	}
	if err := altW.Close(); err != nil {
		return "", errors.Wrap(err, "closing multipart/alternative")
	}
	altType := "multipart/alternative; boundary=" + altW.Boundary()

	out := new(strings.Builder)
	header := func(key, value string) {
		if value != "" {
			_, _ = fmt.Fprintf(out, "%s: %s\r\n", key, value)
		}
	}
	header("From", svc.from.String())
	header("To", joinAddresses(msg.To))
	header("Cc", joinAddresses(msg.Cc))
	header("Bcc", joinAddresses(msg.Bcc))
	header("Subject", mime.QEncoding.Encode("utf-8", svc.subjPrefix+msg.Subject))
	header("Date", core.NowFunc().Format(time.RFC1123Z))
	header("MIME-Version", "1.0")

	if !msg.HasAttachments() {
		header("Content-Type", altType)
		_, _ = fmt.Fprint(out, "\r\n")
		out.Write(alt.Bytes())
		return out.String(), nil
	}

	mixedW := multipart.NewWriter(out)
	header("Content-Type", "multipart/mixed; boundary="+mixedW.Boundary())
	_, _ = fmt.Fprint(out, "\r\n")

	w, err := mixedW.CreatePart(textproto.MIMEHeader{"Content-Type": {altType}})
	if err != nil {
		return "", errors.Wrap(err, "creating multipart/alternative part")
	}
	if _, err = w.Write(alt.Bytes()); err != nil {
		return "", errors.Wrap(err, "writing multipart/alternative part")
	}
	for _, at := range msg.Attachments {
		w, err = mixedW.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {at.ContentType},
			"Content-Transfer-Encoding": {"base64"},
			"Content-Disposition":       {mime.FormatMediaType("attachment", map[string]string{"filename": at.Filename})},
		})
		if err != nil {
			return "", errors.Wrap(err, "creating attachment part")
		}
		_, _ = fmt.Fprintf(w, "%s\r\n", at.Content.String())
	}
	if err = mixedW.Close(); err != nil {
		return "", errors.Wrap(err, "closing multipart/mixed")
	}
	return out.String(), nil
}

func joinAddresses(addrs []mail.Address) string {
	toJoin := make([]string, 0, len(addrs))
	for _, a := range addrs {
		toJoin = append(toJoin, a.String())
	}
	return strings.Join(toJoin, ", ")
}

// consoleServiceMock records messages synchronously without any output.
type consoleServiceMock struct {
	consoleService
}

func NewConsoleServiceMock(conf *core.Config) core.EmailService {
	return &consoleServiceMock{consoleService{from: conf.DefaultFromEmail(), subjPrefix: "[" + conf.AppName + "] "}}
}

func (svc *consoleServiceMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		svc.deliver(msg)
	}
}
