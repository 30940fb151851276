package wizard

import "testing"

func TestNoticesLocalized(t *testing.T) {
	tests := []struct {
		locale string
		want   string
	}{
		{"", msgDraftSaved},
		{"en-US", msgDraftSaved},
		{"vi", "Đã lưu bản nháp."},
		{"vi-VN", "Đã lưu bản nháp."},
	}

	for _, tt := range tests {
		t.Run(tt.locale, func(t *testing.T) {
			n := NewNotices(tt.locale)
			got := n.success(ActionDraft, msgDraftSaved)
			if got.Message != tt.want || got.Kind != NoticeSuccess {
				t.Errorf("Expected %q, got %+v", tt.want, got)
			}
		})
	}
}

func TestNoticeFormatting(t *testing.T) {
	n := NewNotices("en")
	got := n.failure(ActionTasks, msgTasksFailed, 1, 3, "caring tasks")

	want := "Could not save 1 of 3 caring tasks. Reload the plan to see what was saved, then try again."
	if got.Message != want {
		t.Errorf("Expected %q, got %q", want, got.Message)
	}
	if got.Action != ActionTasks || got.Kind != NoticeError {
		t.Errorf("Unexpected notice %+v", got)
	}
}
