// Package repository 数据访问层
package repository

// Pagination 分页参数
type Pagination struct {
	Page     int
	PageSize int
}

// offsetLimit 计算偏移量，分页为空或非法时返回 (0, 0)
func offsetLimit(page *Pagination) (int, int) {
	if page == nil || page.Page <= 0 || page.PageSize <= 0 {
		return 0, 0
	}
	return (page.Page - 1) * page.PageSize, page.PageSize
}
