package auth

import "strings"

// NormalizeEmail は前後の空白を除き、ドメイン部を小文字化する。
// ローカル部は大文字小文字を区別しうるため変更しない。
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
