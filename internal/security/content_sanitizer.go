// Package security はアプリケーションのセキュリティ機能を提供する。
//
// PostSanitizer は投稿のタイトルと本文を保存前にサニタイズし、
// 投稿を表示するクライアントへのXSSを防ぐ。
// bluemondayの許可リストベースのポリシーで、安全なタグと属性のみを通過させる。
// 除去対象を含まないテキストは入力のまま保存する。
package security

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// maxTitlePasses はタイトルのタグ除去を繰り返す上限。
// エンティティを戻した結果が再びタグになる入力を除去しきるために使う。
const maxTitlePasses = 4

// httpsOnly はimgのsrcに許可するURL。
var httpsOnly = regexp.MustCompile(`^https://`)

// PostSanitizer は投稿テキストのサニタイズ機能のインターフェースを定義する。
type PostSanitizer interface {
	// SanitizeTitle はタイトルから全てのマークアップを除去し、前後の空白を取り除く。
	// 結果はHTMLエスケープしないプレーンテキスト。
	SanitizeTitle(raw string) string

	// SanitizeContent は本文のHTMLから許可タグ以外を除去する。
	// 許可タグ: p, br, h2-h4, ul, ol, li, blockquote, pre, code, strong, em, a, img
	// script, iframe, style および on* イベント属性は除去される。
	// URLはhttpsを許可し、aのhrefのみmailtoも許可する。
	// 除去するものがなくエスケープの違いしかない場合は入力のまま返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeContent(raw string) string
}

// postSanitizer はPostSanitizerの実装。
// bluemondayのポリシーはスレッドセーフなので共有してよい。
type postSanitizer struct {
	title   *bluemonday.Policy
	content *bluemonday.Policy
}

// NewPostSanitizer はPostSanitizerの新しいインスタンスを生成する。
func NewPostSanitizer() PostSanitizer {
	return &postSanitizer{
		title:   bluemonday.StrictPolicy(),
		content: newContentPolicy(),
	}
}

func newContentPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()

	p.AllowElements(
		"p", "br", "h2", "h3", "h4",
		"ul", "ol", "li",
		"blockquote", "pre", "code",
		"strong", "em",
	)

	// 外部リンクは新しいタブで開き、リファラを送らない
	p.AllowAttrs("href").OnElements("a")
	p.AllowURLSchemes("https", "mailto")
	p.AllowRelativeURLs(false)
	p.RequireParseableURLs(true)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)

	p.AllowAttrs("src").Matching(httpsOnly).OnElements("img")
	p.AllowAttrs("alt").OnElements("img")

	return p
}

// SanitizeTitle はタイトルから全てのマークアップを除去する。
// bluemondayが付けたエスケープは戻し、"R&D <3" のような文字はそのまま残す。
func (s *postSanitizer) SanitizeTitle(raw string) string {
	title := raw
	for i := 0; strings.ContainsRune(title, '<'); i++ {
		if i == maxTitlePasses {
			// 収束しない入力はエスケープしたまま返す
			return strings.TrimSpace(s.title.Sanitize(title))
		}
		next := html.UnescapeString(s.title.Sanitize(title))
		if next == title {
			break
		}
		title = next
	}
	return strings.TrimSpace(title)
}

// SanitizeContent は本文のHTMLをサニタイズする。
func (s *postSanitizer) SanitizeContent(raw string) string {
	clean := s.content.Sanitize(raw)
	// エスケープの違いしかなければ入力のまま保存する
	if html.UnescapeString(clean) == raw {
		return raw
	}
	return clean
}
