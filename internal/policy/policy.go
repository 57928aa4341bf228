// Package policy は記事・コメントの変更操作に対する認可判定を提供する。
//
// 判定は（操作ユーザー, リソースのスナップショット）だけで決まる純粋関数であり、
// 状態の読み書きは行わない。参照系（一覧・取得）は認証済みであれば許可されるため、
// ここでは変更系（更新・削除）のみを扱う。
package policy

import "github.com/hitoshi/blogapi/internal/model"

// 拒否理由
const (
	ReasonNotPostOwner             = "not post owner"
	ReasonNotCommentOrPostOwner    = "not comment owner or post owner"
	ReasonUnauthenticated          = "unauthenticated"
	ReasonCommentOutsideParentPost = "comment does not belong to post"
)

// Decision は認可判定の結果を表す。
type Decision struct {
	Allowed bool
	Reason  string
}

// Allow は許可の判定を返す。
func Allow() Decision {
	return Decision{Allowed: true}
}

// Deny は理由付きの拒否の判定を返す。
func Deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Err は拒否の場合にPermissionDeniedエラーを返す。許可の場合はnil。
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return model.NewPermissionDeniedError(d.Reason)
}

// AuthorizePostMutation は記事の更新・削除を判定する。
// 記事の所有者のみ許可する。
func AuthorizePostMutation(actorID string, post *model.Post) Decision {
	if actorID == "" {
		return Deny(ReasonUnauthenticated)
	}
	if post.IsOwnedBy(actorID) {
		return Allow()
	}
	return Deny(ReasonNotPostOwner)
}

// AuthorizeCommentMutation はコメントの更新・削除を判定する。
// コメントの所有者に加えて、親記事の所有者にも許可する（自分の記事のコメントをモデレートできる）。
func AuthorizeCommentMutation(actorID string, comment *model.Comment, parent *model.Post) Decision {
	if actorID == "" {
		return Deny(ReasonUnauthenticated)
	}
	if !comment.BelongsTo(parent.ID) {
		return Deny(ReasonCommentOutsideParentPost)
	}
	if comment.IsOwnedBy(actorID) || parent.IsOwnedBy(actorID) {
		return Allow()
	}
	return Deny(ReasonNotCommentOrPostOwner)
}
