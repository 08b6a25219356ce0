// Package model 定义数据模型
package model

import "time"

// ContentStatus 内容状态
// 数值沿用历史编号，对外暴露时保持一致
type ContentStatus int

const (
	StatusPending   ContentStatus = 0 // 待审核（刚创建或刚编辑）
	StatusRejected  ContentStatus = 2 // 审核未通过，仅作者可见
	StatusPublished ContentStatus = 3 // 已发布，所有人可见
	StatusArchived  ContentStatus = 4 // 已归档（终态），仅作者可见
)

// String 返回状态名称
func (s ContentStatus) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRejected:
		return "rejected"
	case StatusPublished:
		return "published"
	case StatusArchived:
		return "archived"
	default:
		return "unknown"
	}
}

// IsValid 检查状态是否为已定义的状态
func (s ContentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusRejected, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// ContentEvent 内容生命周期事件
type ContentEvent int

const (
	EventCreated        ContentEvent = iota // 创建
	EventEdited                             // 作者编辑
	EventVerdictClean                       // 审核通过
	EventVerdictFlagged                     // 审核未通过
	EventAgedOut                            // 超过保鲜期
)

// String 返回事件名称
func (e ContentEvent) String() string {
	switch e {
	case EventCreated:
		return "created"
	case EventEdited:
		return "edited"
	case EventVerdictClean:
		return "verdict_clean"
	case EventVerdictFlagged:
		return "verdict_flagged"
	case EventAgedOut:
		return "aged_out"
	default:
		return "unknown"
	}
}

// Transition 内容状态机
// 纯函数：对未定义的 (状态, 事件) 组合保持原状态不变，绝不隐式发布
//
//	(无)                 + 创建     -> 待审核
//	待审核               + 审核通过 -> 已发布
//	待审核               + 审核拒绝 -> 审核未通过
//	已发布/未通过/已归档 + 编辑     -> 待审核
//	待审核               + 编辑     -> 待审核（幂等）
//	已发布               + 过期     -> 已归档
//	其余                 + 过期     -> 不变
func Transition(current ContentStatus, event ContentEvent) ContentStatus {
	switch event {
	case EventCreated:
		return StatusPending
	case EventEdited:
		return StatusPending
	case EventVerdictClean:
		if current == StatusPending {
			return StatusPublished
		}
	case EventVerdictFlagged:
		if current == StatusPending {
			return StatusRejected
		}
	case EventAgedOut:
		if current == StatusPublished {
			return StatusArchived
		}
	}
	return current
}

// Content 参与审核/可见性/归档流程的内容统一接口
// Product 和 Comment 都实现该接口
type Content interface {
	// ContentID 内容唯一标识
	ContentID() string
	// ContentAuthorID 作者用户 ID
	ContentAuthorID() string
	// ContentStatus 当前状态
	ContentStatus() ContentStatus
	// ModerationText 送审文本
	ModerationText() string
	// ContentUpdatedAt 最后一次写入时间（含系统触发的状态写入）
	ContentUpdatedAt() time.Time
}
