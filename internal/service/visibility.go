package service

import "github.com/capy-market/capybara-backend/internal/model"

// Visible 可见性判定：已发布对所有人可见，其余状态仅作者可见
// viewerID 为空串表示匿名访问
//
// 列表/详情/嵌套读取必须在数据访问层应用同一规则
// （repository.visibleScope），本函数用于已加载实体的补充校验，
// 两处语义必须保持一致
func Visible(content model.Content, viewerID string) bool {
	if content.ContentStatus() == model.StatusPublished {
		return true
	}
	return viewerID != "" && viewerID == content.ContentAuthorID()
}
