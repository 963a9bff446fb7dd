package security

import "testing"

func TestMarkupDetector_ContainsMarkup(t *testing.T) {
	detector := NewMarkupDetector()

	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"プレーンテキスト", "Alice", false},
		{"日本語テキスト", "山田太郎", false},
		{"空白を含む", "Alice Smith", false},
		{"アンパサンド", "Tom & Jerry", false},
		{"引用符", `O'Brien "Bob"`, false},
		{"空文字列", "", false},
		{"強調タグ", "<b>Alice</b>", true},
		{"script", "<script>alert('xss')</script>", true},
		{"イベント属性", `<img src="x" onerror="alert(1)">`, true},
		{"リンク", `<a href="javascript:alert(1)">Bob</a>`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detector.ContainsMarkup(tt.input); got != tt.want {
				t.Errorf("ContainsMarkup(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMarkupDetectorInterface(t *testing.T) {
	var _ MarkupDetector = NewMarkupDetector()
}
