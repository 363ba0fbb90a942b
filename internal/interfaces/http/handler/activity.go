// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"game-gen-ai-api/internal/application/activity"
	"game-gen-ai-api/internal/application/gamegen"
	"game-gen-ai-api/internal/domain/entity"
	"game-gen-ai-api/internal/domain/repository"
	"game-gen-ai-api/internal/interfaces/http/dto"
	"game-gen-ai-api/internal/workflow/node"
	"game-gen-ai-api/pkg/errors"
	"game-gen-ai-api/pkg/logger"
)

// WarningsHeader 成功响应中内容警告数量的响应头
const WarningsHeader = "X-Activity-Warnings"

// ActivityService 活动生成服务
type ActivityService interface {
	Generate(ctx context.Context, req gamegen.GenerateRequest) (*gamegen.Generation, error)
	GenerateDebug(ctx context.Context, req gamegen.GenerateRequest) (*gamegen.Generation, error)
	Parse(ctx context.Context, raw string) (*activity.Result, error)
	Sample(ctx context.Context) (*activity.Result, error)
	Get(ctx context.Context, activityID string) (*entity.GeneratedActivity, error)
	List(ctx context.Context, filter *repository.ActivityFilter, page repository.Pagination) (*repository.PagedResult[*entity.GeneratedActivity], error)
	Stats(ctx context.Context, window time.Duration) (*gamegen.Stats, error)
}

// ActivityHandler 活动处理器
type ActivityHandler struct {
	svc ActivityService
}

// NewActivityHandler 创建活动处理器
func NewActivityHandler(svc ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

// Generate 生成活动
// @Summary 生成活动
// @Description 根据用户描述生成一个经过校验的互动活动
// @Tags Activities
// @Accept json
// @Produce json
// @Param body body dto.GenerateRequest true "生成请求"
// @Success 200 {object} entity.Activity
// @Failure 400 {object} dto.ErrorResponse
// @Failure 502 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /generate [post]
func (h *ActivityHandler) Generate(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	gen, err := h.svc.Generate(c.Request.Context(), toGenerateRequest(req))
	if err != nil {
		dto.Fail(c, err)
		return
	}

	c.Header(WarningsHeader, strconv.Itoa(len(gen.Result.Warnings)))
	c.JSON(http.StatusOK, gen.Result.Activity)
}

// GenerateDebug 生成活动并返回中间产物
// @Summary 调试生成
// @Tags Activities
// @Accept json
// @Produce json
// @Param body body dto.GenerateRequest true "生成请求"
// @Success 200 {object} dto.DebugResponse
// @Router /generate/debug [post]
func (h *ActivityHandler) GenerateDebug(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	gen, err := h.svc.GenerateDebug(c.Request.Context(), toGenerateRequest(req))
	if gen == nil {
		dto.Fail(c, err)
		return
	}

	resp := &dto.DebugResponse{
		Request:     req,
		FullPrompt:  node.Excerpt(gen.FullPrompt, gamegen.DebugExcerptRunes),
		RawResponse: node.Excerpt(gen.Raw, gamegen.DebugExcerptRunes),
		Warnings:    []*dto.WarningResponse{},
		Usage:       dto.ToUsageResponse(gen.Usage),
	}
	if gen.Result != nil {
		resp.FinalGame = gen.Result.Activity
		resp.Strategy = gen.Result.Strategy
		resp.Warnings = dto.ToWarningResponses(gen.Result.Warnings)
	}

	status := http.StatusOK
	if err != nil {
		appErr := errors.AsAppError(err)
		status = appErr.HTTPStatus
		resp.Error = dto.ToErrorDetail(appErr)
		logger.Warn(c.Request.Context(), "debug generation rejected", "error", err.Error())
	}
	c.JSON(status, resp)
}

// Sample 返回内置示例活动
// @Summary 示例活动
// @Description 将一段内置的模型输出送入流水线，不调用模型
// @Tags Activities
// @Produce json
// @Success 200 {object} entity.Activity
// @Router /generate/test [get]
func (h *ActivityHandler) Sample(c *gin.Context) {
	res, err := h.svc.Sample(c.Request.Context())
	if err != nil {
		dto.Fail(c, err)
		return
	}
	c.Header(WarningsHeader, strconv.Itoa(len(res.Warnings)))
	c.JSON(http.StatusOK, res.Activity)
}

// Parse 仅对调用方提供的模型输出运行流水线
// @Summary 解析模型输出
// @Tags Activities
// @Accept json
// @Produce json
// @Param body body dto.ParseRequest true "原始输出"
// @Success 200 {object} dto.Response[dto.ParseResponse]
// @Failure 422 {object} dto.ErrorResponse
// @Router /v1/activities/parse [post]
func (h *ActivityHandler) Parse(c *gin.Context) {
	var req dto.ParseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	res, err := h.svc.Parse(c.Request.Context(), req.Raw)
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, dto.ToParseResponse(res))
}

// GetActivity 获取已存储的活动
// @Summary 获取活动
// @Tags Activities
// @Produce json
// @Param id path string true "活动 ID"
// @Success 200 {object} dto.Response[dto.StoredActivityResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/activities/{id} [get]
func (h *ActivityHandler) GetActivity(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), dto.BindActivityID(c))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, dto.ToStoredActivityResponse(rec, true))
}

// ListActivities 分页列出已存储的活动
// @Summary 活动列表
// @Tags Activities
// @Produce json
// @Param type query string false "活动类型"
// @Param category query string false "分类"
// @Param page query int false "页码" default(1)
// @Param page_size query int false "每页条数" default(20)
// @Success 200 {object} dto.Response[dto.ActivityListResponse]
// @Router /v1/activities [get]
func (h *ActivityHandler) ListActivities(c *gin.Context) {
	page := dto.BindPage(c)
	filter := &repository.ActivityFilter{
		Type:     entity.ActivityType(c.Query("type")),
		Category: entity.Category(c.Query("category")),
	}
	if filter.Type != "" && !filter.Type.Known() {
		dto.BadRequest(c, "unknown activity type: "+string(filter.Type))
		return
	}

	result, err := h.svc.List(c.Request.Context(), filter, page)
	if err != nil {
		dto.Fail(c, err)
		return
	}

	dto.SuccessWithPage(c, dto.ToActivityListResponse(result.Items), dto.PageMetaOf(result))
}

// Stats 生成统计
// @Summary 生成统计
// @Tags Activities
// @Produce json
// @Param window query string false "统计窗口，如 24h"
// @Success 200 {object} dto.Response[gamegen.Stats]
// @Router /stats [get]
func (h *ActivityHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context(), dto.BindWindow(c))
	if err != nil {
		dto.Fail(c, err)
		return
	}
	dto.Success(c, stats)
}

func toGenerateRequest(req dto.GenerateRequest) gamegen.GenerateRequest {
	return gamegen.GenerateRequest{
		Prompt:       req.Prompt,
		ActivityType: entity.ActivityType(req.ActivityType),
		Provider:     req.Provider,
	}
}
