package dto

// IDParam 路径ID参数
type IDParam struct {
	ID string `uri:"id" binding:"required,max=36"`
}
