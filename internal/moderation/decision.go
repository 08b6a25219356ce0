// Package moderation 文本审核客户端与判定规则
package moderation

// RejectThreshold 拒绝阈值：任一分类得分严格大于该值即拒绝
// 阈值比较属于本系统的业务规则，不使用供应商自带的结论字段
const RejectThreshold = 0.5

// Verdict 审核结论
type Verdict int

const (
	VerdictAccept Verdict = iota // 通过
	VerdictReject                // 拒绝
)

// String 返回结论名称
func (v Verdict) String() string {
	if v == VerdictReject {
		return "reject"
	}
	return "accept"
}

// Decide 根据分类得分做出审核结论
// 任一分类得分 > 0.5 即拒绝；恰好等于 0.5 视为通过
func Decide(scores map[string]float64) Verdict {
	for _, score := range scores {
		if score > RejectThreshold {
			return VerdictReject
		}
	}
	return VerdictAccept
}
