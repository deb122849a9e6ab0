package service

import (
	"sync"

	"go.uber.org/zap"
)

// Localized messages shown to operators.
const (
	MsgImageUploadFailed = "Rasm yuklashda xatolik!"
	MsgPDFUploadFailed   = "PDF yuklashda xatolik!"
	MsgCreateFailed      = "O'qituvchi qo'shishda xatolik yuz berdi!"
	MsgCreateSucceeded   = "O'qituvchi muvaffaqiyatli qo'shildi!"
	MsgImageTypeRejected = "Faqat rasm yuklash mumkin!"
	MsgPDFTypeRejected   = "Faqat PDF formatdagi faylni yuklash mumkin!"
	MsgNoTeachersFound   = "O'qituvchi topilmadi"
	MsgListFailed        = "O'qituvchilarni yuklashda xatolik!"
)

// Size rejection messages take the configured limit, e.g. "5MB".
const (
	msgImageSizeRejectedFmt = "Rasm hajmi %s dan kichik bo'lishi kerak!"
	msgPDFSizeRejectedFmt   = "Har bir fayl hajmi %s dan kichik bo'lishi kerak!"
)

// NoticeLevel classifies a notice.
type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a user-facing message raised by an operation.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Notifier surfaces user-visible notices.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// NoticeBoard collects notices raised while serving one request and optionally forwards them.
type NoticeBoard struct {
	mu      sync.Mutex
	notices []Notice
	next    Notifier
}

// NewNoticeBoard returns an empty board. next may be nil.
func NewNoticeBoard(next Notifier) *NoticeBoard {
	return &NoticeBoard{next: next}
}

func (b *NoticeBoard) Success(message string) {
	b.add(Notice{Level: NoticeSuccess, Message: message})
	if b.next != nil {
		b.next.Success(message)
	}
}

func (b *NoticeBoard) Error(message string) {
	b.add(Notice{Level: NoticeError, Message: message})
	if b.next != nil {
		b.next.Error(message)
	}
}

func (b *NoticeBoard) add(n Notice) {
	b.mu.Lock()
	b.notices = append(b.notices, n)
	b.mu.Unlock()
}

// Notices returns a copy of the collected notices in the order they were raised.
func (b *NoticeBoard) Notices() []Notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Notice, len(b.notices))
	copy(out, b.notices)
	return out
}

// Errors returns only the error notices.
func (b *NoticeBoard) Errors() []string {
	var out []string
	for _, n := range b.Notices() {
		if n.Level == NoticeError {
			out = append(out, n.Message)
		}
	}
	return out
}

// LogNotifier writes notices to the application log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Success(message string) {
	n.logger.Info("notice", zap.String("level", string(NoticeSuccess)), zap.String("message", message))
}

func (n *LogNotifier) Error(message string) {
	n.logger.Warn("notice", zap.String("level", string(NoticeError)), zap.String("message", message))
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}
