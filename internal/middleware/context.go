// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
var userIDContextKey = contextKey("user_id")

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// requestUserContextKey は外側のミドルウェアが内側で確定したユーザーIDを参照するためのキー。
var requestUserContextKey = contextKey("request_user")

// requestUser は認証ミドルウェアが書き込み、ロギングミドルウェアが読み取る。
type requestUser struct {
	id string
}

// withRequestUser は書き込み先のrequestUserをコンテキストに用意する。
func withRequestUser(ctx context.Context) (context.Context, *requestUser) {
	ru := &requestUser{}
	return context.WithValue(ctx, requestUserContextKey, ru), ru
}

// recordRequestUser は外側のミドルウェアが用意したrequestUserにユーザーIDを記録する。
func recordRequestUser(ctx context.Context, userID string) {
	if ru, ok := ctx.Value(requestUserContextKey).(*requestUser); ok {
		ru.id = userID
	}
}
