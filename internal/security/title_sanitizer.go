// Package security はアプリケーションのセキュリティ機能を提供する。
//
// TitleSanitizer は記事タイトルからHTMLタグを除去し、
// 利用者が入力したとおりの文字列をプレーンテキストとして返す。
// 本文とコメントは入力どおりに保存し、表示時のエスケープはクライアントが行う。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TitleSanitizer はタイトルのサニタイズ機能のインターフェースを定義する。
type TitleSanitizer interface {
	// SanitizePlain は全てのタグを除去し、前後の空白を取り除く。
	// bluemondayがエスケープした文字実体参照は元の文字に戻す。
	SanitizePlain(raw string) string
}

// titleSanitizer はTitleSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type titleSanitizer struct {
	plain *bluemonday.Policy
}

// NewTitleSanitizer はTitleSanitizerの新しいインスタンスを生成する。
func NewTitleSanitizer() TitleSanitizer {
	return &titleSanitizer{
		plain: bluemonday.StrictPolicy(),
	}
}

// SanitizePlain はタイトルから全てのタグを除去する。
// "&" や "<" はタグでない限りそのまま残る。
func (s *titleSanitizer) SanitizePlain(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.plain.Sanitize(raw)))
}
