package handler

import (
	"github.com/gin-gonic/gin"

	"taskhub/internal/api/middleware"
	"taskhub/internal/dto"
	"taskhub/internal/service"
	"taskhub/pkg/responses"
)

type TeamMemberHandler struct {
	service service.TeamMemberService
}

func NewTeamMemberHandler(service service.TeamMemberService) *TeamMemberHandler {
	return &TeamMemberHandler{service: service}
}

// Invite 邀请成员
func (h *TeamMemberHandler) Invite(c *gin.Context) {
	var req dto.InviteMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BindError(c, err)
		return
	}

	member, err := h.service.Invite(c.Request.Context(), middleware.CurrentUser(c), &req)
	writeCreated(c, member, err)
}

// List 团队成员列表，pending=true 时返回当前用户待接受的邀请
func (h *TeamMemberHandler) List(c *gin.Context) {
	var query dto.MemberListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		responses.BindError(c, err)
		return
	}

	members, err := h.service.List(c.Request.Context(), middleware.CurrentUser(c), &query)
	if err != nil {
		responses.Error(c, err)
		return
	}

	responses.Success(c, members)
}

// Update 接受或撤销成员关系
func (h *TeamMemberHandler) Update(c *gin.Context) {
	var req dto.UpdateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.BindError(c, err)
		return
	}

	member, err := h.service.Update(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"), &req)
	writeResult(c, member, err)
}

// Delete 移除成员
func (h *TeamMemberHandler) Delete(c *gin.Context) {
	err := h.service.Delete(c.Request.Context(), middleware.CurrentUser(c), c.Param("id"))
	writeResult(c, nil, err)
}
