package wizard

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// NoticeKind tells the page how to style a notice
type NoticeKind string

const (
	NoticeError   NoticeKind = "error"
	NoticeSuccess NoticeKind = "success"
)

// Notice is a user facing toast raised by the controller
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Action  string     `json:"action"`
	Message string     `json:"message"`
}

// Actions named in notices
const (
	ActionCreate   = "create"
	ActionUpdate   = "update"
	ActionDraft    = "draft_save"
	ActionTasks    = "save_tasks"
	ActionFinalize = "finalize"
	ActionValidate = "validate"
)

// Message keys double as the English text
const (
	msgCreateFailed   = "Could not create the plan. Please check your connection and try again."
	msgUpdateFailed   = "Could not update the plan. Please try again."
	msgDraftFailed    = "Could not save the draft. Please try again."
	msgTasksFailed    = "Could not save %d of %d %s. Reload the plan to see what was saved, then try again."
	msgFinalizeFailed = "Could not submit the plan. Please try again."
	msgMissingFields  = "Please fill in the required fields: %s"
	msgDraftSaved     = "Draft saved."
	msgPlanSubmitted  = "Plan submitted for approval."
)

var supportedLocales = []language.Tag{language.English, language.Vietnamese}

var noticeCatalog = buildCatalog()

func buildCatalog() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	vi := map[string]string{
		msgCreateFailed:   "Không thể tạo kế hoạch. Vui lòng kiểm tra kết nối và thử lại.",
		msgUpdateFailed:   "Không thể cập nhật kế hoạch. Vui lòng thử lại.",
		msgDraftFailed:    "Không thể lưu bản nháp. Vui lòng thử lại.",
		msgTasksFailed:    "Không thể lưu %d trên %d %s. Hãy tải lại kế hoạch để xem phần đã lưu rồi thử lại.",
		msgFinalizeFailed: "Không thể gửi kế hoạch. Vui lòng thử lại.",
		msgMissingFields:  "Vui lòng điền các trường bắt buộc: %s",
		msgDraftSaved:     "Đã lưu bản nháp.",
		msgPlanSubmitted:  "Đã gửi kế hoạch để phê duyệt.",
	}
	for key, text := range vi {
		_ = b.SetString(language.English, key, key)
		_ = b.SetString(language.Vietnamese, key, text)
	}
	return b
}

// Notices renders notices in one locale
type Notices struct {
	printer *message.Printer
}

// NewNotices picks the closest supported locale to the requested one
func NewNotices(locale string) *Notices {
	tag := language.English
	if locale != "" {
		matcher := language.NewMatcher(supportedLocales)
		_, idx, conf := matcher.Match(language.Make(locale))
		if conf != language.No {
			tag = supportedLocales[idx]
		}
	}
	return &Notices{printer: message.NewPrinter(tag, message.Catalog(noticeCatalog))}
}

func (n *Notices) failure(action, key string, args ...any) Notice {
	return Notice{Kind: NoticeError, Action: action, Message: n.printer.Sprintf(key, args...)}
}

func (n *Notices) success(action, key string) Notice {
	return Notice{Kind: NoticeSuccess, Action: action, Message: n.printer.Sprintf(key)}
}

func (n *Notices) missingFields(fields []string) Notice {
	return n.failure(ActionValidate, msgMissingFields, strings.Join(fields, ", "))
}
