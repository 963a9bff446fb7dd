package security

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

// MarkupDetector は入力値にHTMLマークアップが含まれるかを判定するインターフェース。
// 入力値を書き換えずに、受け付けるかどうかの判断だけに使う。
type MarkupDetector interface {
	ContainsMarkup(raw string) bool
}

// markupDetector はbluemondayのStrictPolicyによるMarkupDetectorの実装。
// ポリシーはスレッドセーフで、複数リクエストから共有できる。
type markupDetector struct {
	policy *bluemonday.Policy
}

// NewMarkupDetector はMarkupDetectorの新しいインスタンスを生成する。
func NewMarkupDetector() *markupDetector {
	return &markupDetector{policy: bluemonday.StrictPolicy()}
}

// ContainsMarkup はStrictPolicyで除去される要素があればtrueを返す。
// bluemondayがエスケープした文字実体は平文に戻してから比較する。
func (d *markupDetector) ContainsMarkup(raw string) bool {
	return html.UnescapeString(d.policy.Sanitize(raw)) != raw
}

var _ MarkupDetector = (*markupDetector)(nil)
